package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/insight"
	"github.com/KaramelBytes/leaseup/internal/stats"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

var (
	insightSeason   string
	insightCluster  int
	insightDryRun   bool
	insightJSON     bool
	insightModel    string
	insightProvider string
	insightOutput   string
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Ask the language model for a lease-up insight about one cluster",
	Example: `  leaseup insight --cluster 2 --dry-run
  leaseup insight --cluster 2 --season Winter
  leaseup insight --cluster 0 --provider ollama --model llama3.1:8b-instruct --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, _, err := loadDataset(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		view := tbl.FilterSeason(insightSeason)
		id, reset := stats.ResolveCluster(view.ClusterIDs(), insightCluster)
		if reset {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Cluster %d has no properties in season %s; using cluster %d\n", insightCluster, insightSeason, id)
		}
		sum := stats.Summarize(view, id)
		out := cmd.OutOrStdout()

		if insightDryRun {
			prompt := insight.BuildPrompt(sum)
			fmt.Fprintln(out, prompt)
			fmt.Fprintf(cmd.ErrOrStderr(), "\n~%d prompt tokens (dry run, nothing sent)\n", utils.CountTokens(prompt))
			return nil
		}

		gen, err := newGenerator(c, runtimeOptions{ProviderFlag: insightProvider, ModelFlag: insightModel})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Generating insight with %s…\n", gen.Model())
		res, err := gen.Generate(context.Background(), sum)
		if err != nil {
			var ie *insight.Error
			if errors.As(err, &ie) {
				return fmt.Errorf("%s (%s): %w", ie.Message(), ie.Kind, ie.Err)
			}
			return err
		}

		var b []byte
		if insightJSON {
			if b, err = utils.PrettyJSON(res); err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			fmt.Fprintln(out, "\n=== GPT Insight ===")
			fmt.Fprintln(out, res.Text)
			if res.EstimatedCostUSD > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n~$%.4f estimated (%d prompt + %d completion tokens)\n",
					res.EstimatedCostUSD, res.Usage.PromptTokens, res.Usage.CompletionTokens)
			}
			b = []byte(res.Text)
		}
		if insightOutput != "" {
			if err := utils.SafeWriteFile(insightOutput, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "💾 Saved insight to %s\n", insightOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightCmd)
	insightCmd.Flags().StringVar(&insightSeason, "season", dataset.AllSeasons, "season filter (exact match, All for every season)")
	insightCmd.Flags().IntVar(&insightCluster, "cluster", 0, "cluster id")
	insightCmd.Flags().BoolVar(&insightDryRun, "dry-run", false, "print the prompt without calling the model")
	insightCmd.Flags().BoolVar(&insightJSON, "json", false, "print the full result as JSON")
	insightCmd.Flags().StringVar(&insightModel, "model", "", "model to use (overrides default_model)")
	insightCmd.Flags().StringVar(&insightProvider, "provider", "", "LLM provider: openai, openrouter, ollama")
	insightCmd.Flags().StringVarP(&insightOutput, "output", "o", "", "also write the insight to this file")
}
