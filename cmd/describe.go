package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/stats"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

var (
	describeSeason  string
	describeCluster int
	describeJSON    bool
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show summary statistics for one cluster",
	Example: `  leaseup describe --cluster 2
  leaseup describe --cluster 0 --season Summer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, _, err := loadDataset(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		view := tbl.FilterSeason(describeSeason)
		id, reset := stats.ResolveCluster(view.ClusterIDs(), describeCluster)
		sum := stats.Summarize(view, id)
		desc := stats.Describe(view.FilterCluster(id))

		out := cmd.OutOrStdout()
		if describeJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"season":    describeSeason,
				"requested": describeCluster,
				"cluster":   id,
				"reset":     reset,
				"summary":   sum,
				"describe":  desc,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if reset {
			fmt.Fprintf(out, "⚠ Cluster %d has no properties in season %s; showing cluster %d\n", describeCluster, describeSeason, id)
		}
		fmt.Fprintf(out, "Cluster %d: %d properties, dominant season %s\n", id, sum.Size, sum.DominantSeason)
		renderDescribe(out, desc)
		return nil
	},
}

func renderDescribe(w io.Writer, d stats.Description) {
	header := []string{""}
	for _, c := range d.Columns {
		header = append(header, string(c.Column))
	}
	rows := []struct {
		name string
		pick func(stats.ColumnStats) string
	}{
		{"count", func(c stats.ColumnStats) string { return strconv.Itoa(c.Count) }},
		{"mean", func(c stats.ColumnStats) string { return c.Mean.String() }},
		{"std", func(c stats.ColumnStats) string { return c.Std.String() }},
		{"min", func(c stats.ColumnStats) string { return c.Min.String() }},
		{"25%", func(c stats.ColumnStats) string { return c.P25.String() }},
		{"50%", func(c stats.ColumnStats) string { return c.P50.String() }},
		{"75%", func(c stats.ColumnStats) string { return c.P75.String() }},
		{"max", func(c stats.ColumnStats) string { return c.Max.String() }},
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for _, r := range rows {
		line := []string{r.name}
		for _, c := range d.Columns {
			line = append(line, r.pick(c))
		}
		table.Append(line)
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVar(&describeSeason, "season", dataset.AllSeasons, "season filter (exact match, All for every season)")
	describeCmd.Flags().IntVar(&describeCluster, "cluster", 0, "cluster id")
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "print the summary and describe table as JSON")
}
