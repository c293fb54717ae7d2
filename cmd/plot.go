package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/plot"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

var (
	plotSeason string
	plotOutput string
	plotWidth  int
	plotHeight int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the t-SNE cluster scatter to a PNG or HTML file",
	Example: `  leaseup plot -o clusters.png
  leaseup plot --season Winter -o winter.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, _, err := loadDataset(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		view := tbl.FilterSeason(plotSeason)
		opt := plot.Options{Subtitle: "Season: " + plotSeason, Width: plotWidth, Height: plotHeight}

		var buf bytes.Buffer
		switch strings.ToLower(filepath.Ext(plotOutput)) {
		case ".png":
			err = plot.RenderPNG(&buf, view, opt)
		case ".html", ".htm":
			err = plot.RenderHTML(&buf, view, opt)
		default:
			return fmt.Errorf("unsupported output %q (use .png or .html)", plotOutput)
		}
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if err := utils.SafeWriteFile(plotOutput, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d points to %s\n", view.Len(), plotOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVar(&plotSeason, "season", dataset.AllSeasons, "season filter (exact match, All for every season)")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "clusters.png", "output file, .png or .html")
	plotCmd.Flags().IntVar(&plotWidth, "width", 0, "image width in pixels (default 900)")
	plotCmd.Flags().IntVar(&plotHeight, "height", 0, "image height in pixels (default 600)")
}
