package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath string `mapstructure:"dataset_path" yaml:"dataset_path"`
	Sheet       string `mapstructure:"sheet" yaml:"sheet,omitempty"`

	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	OpenAIBaseURL   string  `mapstructure:"openai_base_url" yaml:"openai_base_url,omitempty"`
	ModelsCatalog   string  `mapstructure:"models_catalog" yaml:"models_catalog,omitempty"`

	// Insight request bound, independent of the transport timeout.
	InsightTimeoutSec int `mapstructure:"insight_timeout_sec" yaml:"insight_timeout_sec"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Dashboard
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// Dir is the per-user configuration directory name under $HOME.
const Dir = ".leaseup"

// ResolveAPIKey returns the configured key, falling back to the provider's
// conventional environment variable.
func (c *Global) ResolveAPIKey(provider string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter", "":
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, Dir, "config.yaml"), nil
}

// Save writes c to cfgFile, or to ~/.leaseup/config.yaml when cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load reads configuration from defaults, the config file, a .env file in the
// working directory, and LEASEUP_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LEASEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dataset_path", "final_delivery_info.csv")
	v.SetDefault("sheet", "")
	v.SetDefault("api_key", "")
	v.SetDefault("default_provider", "openai")
	v.SetDefault("default_model", "")
	v.SetDefault("max_tokens", 600)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("openai_base_url", "")
	v.SetDefault("models_catalog", "")
	v.SetDefault("insight_timeout_sec", 45)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("listen_addr", "127.0.0.1:8501")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if p, err := defaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
