// Command kbloader loads knowledge-base documents into the assistant.
//
// It walks local files or directories, filters them by extension, and posts
// each file to the orchestrator's POST /v1/documents endpoint. With --watch
// it keeps running and re-ingests files as they change on disk.
//
// # Usage
//
//	# One-shot load
//	kbloader ingest ./kb
//
//	# Keep the knowledge base in sync with a directory
//	kbloader ingest --watch ./kb
//
// Authentication uses --token when given, otherwise the loader logs in with
// ADMIN_USERNAME / ADMIN_PASSWORD (defaults: admin / password123).
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
