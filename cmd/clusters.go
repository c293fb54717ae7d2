package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/stats"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

var (
	clustersSeason string
	clustersJSON   bool
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Summarize every cluster in the (season-filtered) dataset",
	Example: `  leaseup clusters
  leaseup clusters --season Winter
  leaseup clusters --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, _, err := loadDataset(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		view := tbl.FilterSeason(clustersSeason)
		ids := view.ClusterIDs()
		summaries := make([]stats.Summary, 0, len(ids))
		for _, id := range ids {
			summaries = append(summaries, stats.Summarize(view, id))
		}

		out := cmd.OutOrStdout()
		if clustersJSON {
			b, err := utils.PrettyJSON(summaries)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(summaries) == 0 {
			fmt.Fprintf(out, "No properties for season %q\n", clustersSeason)
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Cluster", "Size", "Age", "Competition", "Rent", "Occupancy", "Dominant Season"})
		for _, s := range summaries {
			table.Append([]string{
				strconv.Itoa(s.Cluster),
				strconv.Itoa(s.Size),
				meanStdCell(s.Age),
				meanStdCell(s.Competition),
				meanStdCell(s.Rent),
				meanStdCell(s.Occupancy),
				s.DominantSeason,
			})
		}
		table.Render()
		return nil
	},
}

func meanStdCell(m stats.MeanStd) string {
	return fmt.Sprintf("%s ± %s", m.Mean, m.Std)
}

func init() {
	rootCmd.AddCommand(clustersCmd)
	clustersCmd.Flags().StringVar(&clustersSeason, "season", dataset.AllSeasons, "season filter (exact match, All for every season)")
	clustersCmd.Flags().BoolVar(&clustersJSON, "json", false, "print summaries as JSON")
}
