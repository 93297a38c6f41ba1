package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"keepsake/internal/pipeline"
)

var (
	revalueURL     string
	revalueAPIKey  string
	revalueTimeout time.Duration
)

var revalueCmd = &cobra.Command{
	Use:   "revalue",
	Short: "Trigger a batch revaluation on a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if revalueAPIKey == "" {
			return fmt.Errorf("an API key is required (--api-key or PIPELINE_API_KEY)")
		}
		client := pipeline.NewClient(revalueURL, revalueAPIKey, &http.Client{Timeout: revalueTimeout})
		summary, err := client.RevalueAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "evaluated %d, appended %d, failed %d\n",
			summary.Evaluated, summary.Appended, summary.Failed)
		return nil
	},
}

func init() {
	revalueCmd.Flags().StringVar(&revalueURL, "url", envOr("KEEPSAKE_API_URL", "http://localhost:8080"), "server base URL")
	revalueCmd.Flags().StringVar(&revalueAPIKey, "api-key", os.Getenv("PIPELINE_API_KEY"), "pipeline API key")
	revalueCmd.Flags().DurationVar(&revalueTimeout, "timeout", 5*time.Minute, "request timeout")
	rootCmd.AddCommand(revalueCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
