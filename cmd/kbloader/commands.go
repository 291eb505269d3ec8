package main

import (
	"github.com/spf13/cobra"

	"github.com/satpathiprabhat/banking-ai-chatbot/pkg/logging"
)

// --- Global Command Variables ---
var (
	orchestratorURL string
	authToken       string
	logDir          string
	numWorkers      int
	watchMode       bool
	debounceMillis  int

	logger = logging.Default()

	rootCmd = &cobra.Command{
		Use:   "kbloader",
		Short: "A cli to load knowledge-base documents into the banking assistant",
		Long: `kbloader posts local documents to the orchestrator's document API
so the assistant can ground feature and knowledge answers on them.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logDir != "" {
				logger = logging.New(logging.Config{
					LogDir:  logDir,
					Service: "kbloader",
				})
			}
		},
	}

	ingestCmd = &cobra.Command{
		Use:     "ingest [path...]",
		Short:   "Ingest files or directories into the knowledge base",
		Aliases: []string{"i"},
		Args:    cobra.MinimumNArgs(1),
		Run:     runIngest,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&orchestratorURL, "orchestrator-url",
		"http://localhost:8080", "Base URL of the orchestrator service")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "",
		"Bearer token for the orchestrator (default: login with ADMIN_USERNAME/ADMIN_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Directory for a JSON log file alongside stderr output")

	ingestCmd.Flags().IntVar(&numWorkers, "workers", 4,
		"Number of parallel upload workers")
	ingestCmd.Flags().BoolVar(&watchMode, "watch", false,
		"Keep running and re-ingest files when they change")
	ingestCmd.Flags().IntVar(&debounceMillis, "debounce-ms", 500,
		"Quiet period before re-ingesting a changed file (watch mode)")

	rootCmd.AddCommand(ingestCmd)
}
