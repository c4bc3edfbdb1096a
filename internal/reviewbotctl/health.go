package reviewbotctl

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the worker's /health endpoint",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	resp, err := httpClient().Get(workerURL + "/health")
	if err != nil {
		return fmt.Errorf("reaching worker at %s: %w", workerURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker unhealthy: status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Println(string(body))
	return nil
}
