package cmd

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/ai"
	cfgpkg "github.com/KaramelBytes/leaseup/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Leaseup configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "dataset_path: %s\n", cfg.DatasetPath)
		if cfg.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", cfg.Sheet)
		}
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.ResolveAPIKey(cfg.DefaultProvider)))
		fmt.Fprintf(out, "default_provider: %s\n", cfg.DefaultProvider)
		fmt.Fprintf(out, "default_model: %s\n", selectModel(cfg, resolveProvider(cfg, ""), ""))
		fmt.Fprintf(out, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		if cfg.OpenAIBaseURL != "" {
			fmt.Fprintf(out, "openai_base_url: %s\n", cfg.OpenAIBaseURL)
		}
		if cfg.ModelsCatalog != "" {
			fmt.Fprintf(out, "models_catalog: %s\n", cfg.ModelsCatalog)
		}
		fmt.Fprintf(out, "insight_timeout_sec: %d\n", cfg.InsightTimeoutSec)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		switch key {
		case "dataset_path":
			c.DatasetPath = val
		case "sheet":
			c.Sheet = val
		case "api_key":
			c.APIKey = val
		case "default_model":
			c.DefaultModel = val
		case "default_provider":
			p := resolveProvider(nil, val)
			if !lo.Contains(ai.Providers(), p) {
				return fmt.Errorf("invalid default_provider: %s (use openai, openrouter or ollama)", val)
			}
			c.DefaultProvider = p
		case "openai_base_url":
			c.OpenAIBaseURL = val
		case "models_catalog":
			c.ModelsCatalog = val
		case "ollama_host":
			c.OllamaHost = val
		case "listen_addr":
			c.ListenAddr = val
		case "max_tokens", "insight_timeout_sec", "http_timeout_sec", "retry_max_attempts":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			setInt(c, key, i)
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for temperature: %w", err)
			}
			c.Temperature = f
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setInt(c *cfgpkg.Global, key string, v int) {
	switch key {
	case "max_tokens":
		c.MaxTokens = v
	case "insight_timeout_sec":
		c.InsightTimeoutSec = v
	case "http_timeout_sec":
		c.HTTPTimeoutSec = v
	case "retry_max_attempts":
		c.RetryMaxAttempts = v
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
