package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LPAGENT_RPC.
const EnvPrefix = "LPAGENT"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL              string
	PrivateKey          string
	LogLevel            string
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	MaxRetries          int
	RetryBackoff        time.Duration
	Journal             string
	PGDSN               string
	MetricsAddr         string
}

// LoadDotEnv loads KEY=value pairs from files into the process environment
// without overriding variables that are already set. Missing files are
// ignored; with no arguments ./.env is used.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("receipt-timeout", 5*time.Minute)
	v.SetDefault("receipt-poll-interval", 2*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:              strings.TrimSpace(v.GetString("rpc")),
		PrivateKey:          strings.TrimSpace(v.GetString("private-key")),
		LogLevel:            v.GetString("log-level"),
		ReceiptTimeout:      v.GetDuration("receipt-timeout"),
		ReceiptPollInterval: v.GetDuration("receipt-poll-interval"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
		Journal:             strings.TrimSpace(v.GetString("journal")),
		PGDSN:               strings.TrimSpace(v.GetString("pg-dsn")),
		MetricsAddr:         strings.TrimSpace(v.GetString("metrics-addr")),
	}

	return cfg, nil
}

// Validate checks the settings every command needs to reach a wallet.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required (--rpc or %s_RPC)", EnvPrefix)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required (--private-key or %s_PRIVATE_KEY)", EnvPrefix)
	}
	if c.Journal != "" && c.PGDSN != "" {
		return fmt.Errorf("journal and pg-dsn are mutually exclusive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be >= 0")
	}
	return nil
}
