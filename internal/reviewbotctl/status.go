package reviewbotctl

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/antinvestor/reviewbot/internal/audit"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the recorded outcome of a review job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "print the raw JSON record")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	resp, err := httpClient().Get(workerURL + "/jobs/" + jobID)
	if err != nil {
		return fmt.Errorf("reaching worker at %s: %w", workerURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no recorded run for job %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker returned status %d for job %s", resp.StatusCode, jobID)
	}

	var run audit.ReviewRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return fmt.Errorf("decoding review run: %w", err)
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	printStatus(run)
	return nil
}

func printStatus(run audit.ReviewRun) {
	fmt.Printf("job:       %s\n", run.JobID)
	fmt.Printf("repo:      %s/%s#%d\n", run.Owner, run.Repo, run.PRNumber)
	fmt.Printf("sha:       %s\n", run.SHA)
	fmt.Printf("risk:      %s (%d)\n", run.RiskLevel, run.RiskScore)
	fmt.Printf("issues:    %d\n", run.IssuesFound)
	fmt.Printf("tools:     %s\n", run.ToolsRun)
	fmt.Printf("decision:  %s\n", run.Decision)
	fmt.Printf("success:   %t\n", run.Success)
	if run.ErrorMessage != "" {
		fmt.Printf("error:     %s\n", run.ErrorMessage)
	}
	fmt.Printf("started:   %s\n", run.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	if run.CompletedAt != nil {
		fmt.Printf("completed: %s\n", run.CompletedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
}
