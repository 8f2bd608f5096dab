// Package config loads privategpt settings from a YAML file, .env and
// PRIVATEGPT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const envPrefix = "PRIVATEGPT"

var (
	ErrUnknownModelBackend     = errors.New("model.backend must be ollama or openai")
	ErrUnknownRetrieverBackend = errors.New("retriever.backend must be memory or qdrant")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.root", ".cache")
	v.SetDefault("chunker.separator", "\n")
	v.SetDefault("chunker.size", 600)
	v.SetDefault("chunker.overlap", 100)
	v.SetDefault("memory.window", 6)
	v.SetDefault("retriever.top_k", 4)
	v.SetDefault("retriever.backend", "memory")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("model.backend", "ollama")
	v.SetDefault("model.base_url", "http://localhost:11434")
	v.SetDefault("model.chat_model", "mistral:latest")
	v.SetDefault("model.embedding_model", "mistral:latest")
	v.SetDefault("model.temperature", 0.1)
	v.SetDefault("parser.partition_url", "http://localhost:8000")
	v.SetDefault("parser.local_docx", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("watch.quiet", "500ms")
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// With no configFile, ./config.yaml is read when present.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		logger.GetLogger().Debug("no config file found, using defaults")
	}

	loadDotEnv()

	if err := v.BindEnv("model.api_key", envPrefix+"_MODEL_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding environment variable: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logger.GetLogger().Debug(".env file not found or unable to load")
	}
}

// Validate rejects unknown backends.
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModelBackend, c.Model.Backend)
	}
	switch c.Retriever.Backend {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRetrieverBackend, c.Retriever.Backend)
	}
	return nil
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	if err := logger.SetLevelFromString(cfg.Log.Level); err != nil {
		logger.SetLevelFromString("info")
	}
}

// Dump writes the effective configuration as YAML. Secrets are omitted.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
