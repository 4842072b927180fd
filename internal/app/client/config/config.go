package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vaultkeeper/internal/app/client/crypto"
)

const (
	envPath              = ".env"
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultConfigDir     = ".vaultkeeper"
	defaultKDFIterations = 600000
	minKDFIterations     = 10000
)

type Config struct {
	Env           string
	ServerAddress string
	EnableTLS     bool
	ConfigDir     string
	TokenPath     string
	CachePath     string
	RuntimeDir    string
	KDFIterations int
	Window        time.Duration
	Timeout       time.Duration
	// SessionSecret is the value of VAULTKEEPER_SESSION, empty when no
	// shell session has been started.
	SessionSecret string
}

// Load reads an optional .env file, then the process environment, and
// creates the config directory.
func Load() (*Config, error) {
	_ = godotenv.Load(envPath)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_address", defaultServerAddress)
	v.SetDefault("enable_tls", false)
	v.SetDefault("config_dir", "")
	v.SetDefault("vault_kdf_iterations", defaultKDFIterations)
	v.SetDefault("vault_window", crypto.DefaultWindow)
	v.SetDefault("http_timeout", 30*time.Second)

	configDir := v.GetString("config_dir")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, defaultConfigDir)
	}

	cfg := &Config{
		Env:           v.GetString("app_env"),
		ServerAddress: v.GetString("server_address"),
		EnableTLS:     v.GetBool("enable_tls"),
		ConfigDir:     configDir,
		TokenPath:     filepath.Join(configDir, "token.json"),
		CachePath:     filepath.Join(configDir, "cache.db"),
		RuntimeDir:    crypto.DefaultRuntimeDir(),
		KDFIterations: v.GetInt("vault_kdf_iterations"),
		Window:        v.GetDuration("vault_window"),
		Timeout:       v.GetDuration("http_timeout"),
		SessionSecret: os.Getenv(crypto.SessionEnv),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS must not be empty")
	}
	if c.KDFIterations < minKDFIterations {
		return fmt.Errorf("VAULT_KDF_ITERATIONS must be at least %d", minKDFIterations)
	}
	if c.Window <= 0 {
		return fmt.Errorf("VAULT_WINDOW must be positive")
	}
	return nil
}

// BaseURL is the server root including the scheme.
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}
