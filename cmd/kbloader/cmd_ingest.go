package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// allowedFileExts limits ingestion to plain-text knowledge documents.
var allowedFileExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// blockedDirs are skipped during directory walks.
var blockedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

type ingestResponse struct {
	Status          string `json:"status"`
	Source          string `json:"source"`
	ChunksProcessed int    `json:"chunks_processed"`
}

func runIngest(cmd *cobra.Command, args []string) {
	token, err := resolveToken()
	if err != nil {
		logger.Error("Could not authenticate with the orchestrator", "error", err)
		os.Exit(1)
	}

	allFiles := collectFiles(args)
	if len(allFiles) == 0 && !watchMode {
		fmt.Println("No valid files found to process.")
		return
	}

	if len(allFiles) > 0 {
		fmt.Printf("Found %d files. Starting parallel ingestion with %d workers...\n",
			len(allFiles), numWorkers)
		ingestAll(allFiles, token)
	}

	if watchMode {
		if err := watchAndIngest(args, token); err != nil {
			logger.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	}
}

// collectFiles walks the given paths and returns every ingestable file.
func collectFiles(paths []string) []string {
	var allFiles []string
	for _, path := range paths {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if blockedDirs[info.Name()] {
					logger.Info("Skipping blocked directory", "path", p)
					return filepath.SkipDir
				}
				return nil
			}
			if allowedFileExts[filepath.Ext(p)] {
				allFiles = append(allFiles, p)
			}
			return nil
		})
		if err != nil {
			logger.Warn("Error walking path", "path", path, "error", err)
		}
	}
	return allFiles
}

func ingestAll(files []string, token string) {
	var wg sync.WaitGroup
	jobs := make(chan string, len(files))

	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go fileWorker(w, &wg, jobs, token)
	}
	for _, file := range files {
		jobs <- file
	}
	close(jobs)
	wg.Wait()
}

func fileWorker(id int, wg *sync.WaitGroup, jobs <-chan string, token string) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Minute}

	for file := range jobs {
		fmt.Printf("[Worker %d] Ingesting: %s\n", id, file)
		if err := ingestFile(client, file, token); err != nil {
			logger.Error("Failed to ingest file", "worker", id, "file", file, "error", err)
		}
	}
}

func ingestFile(client *http.Client, file, token string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	postBody, err := json.Marshal(map[string]string{
		"source":  file,
		"content": string(content),
	})
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost,
		strings.TrimRight(orchestratorURL, "/")+"/v1/documents",
		bytes.NewBuffer(postBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach orchestrator: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("orchestrator returned status %d: %s",
			resp.StatusCode, string(bodyBytes))
	}

	var ingestResp ingestResponse
	if err := json.Unmarshal(bodyBytes, &ingestResp); err == nil {
		logger.Info("Ingested document", "source", ingestResp.Source,
			"chunks", ingestResp.ChunksProcessed)
	} else {
		logger.Info("Ingested document, response unclear", "file", file)
	}
	return nil
}

// watchAndIngest re-ingests files as they change. Events are debounced per
// file so editors that write in bursts trigger a single upload.
func watchAndIngest(paths []string, token string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range paths {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if blockedDirs[info.Name()] {
					return filepath.SkipDir
				}
				return watcher.Add(p)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	client := &http.Client{Timeout: 5 * time.Minute}
	debounce := time.Duration(debounceMillis) * time.Millisecond

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !allowedFileExts[filepath.Ext(event.Name)] {
				// New sub-directories still need a watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
				continue
			}

			file := event.Name
			mu.Lock()
			if timer, exists := pending[file]; exists {
				timer.Stop()
			}
			pending[file] = time.AfterFunc(debounce, func() {
				mu.Lock()
				delete(pending, file)
				mu.Unlock()

				fmt.Printf("Change detected, re-ingesting: %s\n", file)
				if err := ingestFile(client, file, token); err != nil {
					logger.Error("Failed to re-ingest file", "file", file, "error", err)
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error", "error", err)
		}
	}
}
