package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"keepsake/internal/models"
	"keepsake/internal/services"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage depreciation rules",
}

var rulesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the built-in rules for categories that have none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openDatabase()
		if err != nil {
			return err
		}
		defer mgr.Close()
		if err := mgr.Migrate(); err != nil {
			return err
		}

		n, err := services.NewRuleService(mgr.DB()).SeedDefaultRules()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rule(s)\n", n)
		return nil
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openDatabase()
		if err != nil {
			return err
		}
		defer mgr.Close()

		rules, err := services.NewRuleService(mgr.DB()).ListRules()
		if err != nil {
			return err
		}
		return printRules(cmd.OutOrStdout(), rules)
	},
}

func init() {
	rulesCmd.AddCommand(rulesSeedCmd, rulesListCmd)
}

func printRules(w io.Writer, rules []models.DepreciationRule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tANNUAL RATE\tFLOOR %")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Category, r.AnnualRate.StringFixed(4), r.MinValuePercentage.StringFixed(2))
	}
	return tw.Flush()
}
