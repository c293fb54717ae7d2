package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/server"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive lease-up dashboard",
	Example: `  leaseup serve
  leaseup serve --data final_delivery_info.csv --addr 0.0.0.0:8501
  leaseup serve --provider openrouter --model openai/gpt-4o-mini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, st, err := loadDataset(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}

		var gen server.InsightGenerator
		g, err := newGenerator(c, runtimeOptions{ProviderFlag: serveProvider, ModelFlag: serveModel})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: insight generation disabled: %v\n", err)
		} else {
			gen = g
		}

		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(tbl, gen, server.Options{
			Addr:        addr,
			DatasetName: st.Name,
			Logger:      slog.Default(),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard ready at http://%s (Ctrl+C to stop)\n", addr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: openai, openrouter, ollama")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model used for insights")
}
