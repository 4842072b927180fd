package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Auth   Auth
	Logger Logger
}

type DB struct {
	DatabaseURI string
	Migrations  string
}

type Server struct {
	RunAddress      string
	ShutdownTimeout time.Duration
}

type Auth struct {
	HashIterations int
	SessionTTL     time.Duration
	ResetTTL       time.Duration
	ResetLinkBase  string
}

type Logger struct {
	LogLevel string
}

// Load reads an optional .env file, then the process environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load(envPath)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("app_env"),
		DB: DB{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: Server{
			RunAddress:      v.GetString("run_address"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Auth: Auth{
			HashIterations: v.GetInt("password_hash_iterations"),
			SessionTTL:     v.GetDuration("session_ttl"),
			ResetTTL:       v.GetDuration("reset_ttl"),
			ResetLinkBase:  v.GetString("reset_link_base"),
		},
		Logger: Logger{LogLevel: v.GetString("log_level")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("password_hash_iterations", 100000)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("reset_ttl", time.Hour)
	v.SetDefault("reset_link_base", "http://localhost:8080/user/reset/redeem")
	v.SetDefault("log_level", "info")
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	if c.Auth.HashIterations < 10000 {
		return fmt.Errorf("PASSWORD_HASH_ITERATIONS must be at least 10000")
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.ResetTTL <= 0 {
		return fmt.Errorf("SESSION_TTL and RESET_TTL must be positive")
	}
	return nil
}
