// Package reviewbotctl is a non-interactive, single-shot CLI for
// operators to inspect a running worker: is it healthy, and what
// happened to a given review job.
package reviewbotctl

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	workerURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "reviewbotctl",
	Short: "Operator CLI for the review bot worker",
}

func init() {
	defaultURL := os.Getenv("REVIEWBOT_WORKER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&workerURL, "worker-url", defaultURL, "base URL of the worker's HTTP mux")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
}

// Execute runs the CLI, returning any error from the selected subcommand.
func Execute() error {
	return rootCmd.Execute()
}

func httpClient() *http.Client {
	return &http.Client{Timeout: timeout}
}
