package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/ai"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog and pricing used for cost estimates",
	Example: `  leaseup models show
  leaseup models show --json
  leaseup models sync --file ./models.json`,
}

var modelsShowJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		out := cmd.OutOrStdout()
		if modelsShowJSON {
			b, err := utils.PrettyJSON(cat)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Model", "Provider", "Context", "$/1K in", "$/1K out"})
		for _, m := range cat {
			table.Append([]string{
				m.Name,
				m.Provider,
				strconv.Itoa(m.ContextTokens),
				strconv.FormatFloat(m.InputPerK, 'f', -1, 64),
				strconv.FormatFloat(m.OutputPerK, 'f', -1, 64),
			})
		}
		table.Render()
		fmt.Fprintf(out, "Providers: %v\n", ai.Providers())
		return nil
	},
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file",
	Long: `Merge model catalog/pricing from a JSON file for this invocation.
Set models_catalog in the config to apply a file on every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d models from %s\n", len(m), syncPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)

	modelsShowCmd.Flags().BoolVar(&modelsShowJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
}
