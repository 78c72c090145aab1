// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// SimulationConfig is the resolved simulation record: table rules, bankroll
// and the strategies to run.
type SimulationConfig struct {
	Variant        string   `mapstructure:"variant" validate:"oneof=EUROPEAN_STYLE AMERICAN_STYLE ONE_TO_36"`
	SpotGeneration string   `mapstructure:"spot_generation" validate:"oneof=RANDOM ROTATION_NUMBER ROTATION_WHEEL RANDOM_RED_ONLY RANDOM_BLACK_ONLY RANDOM_EXCEPT_ONE"`
	InitialBalance float64  `mapstructure:"initial_balance" validate:"gt=0"`
	MinBet         float64  `mapstructure:"min_bet" validate:"gt=0"`
	MaxBet         float64  `mapstructure:"max_bet" validate:"gtefield=MinBet"`
	Strategies     []string `mapstructure:"strategies" validate:"min=1,dive,oneof=fixed martingale cocomo"`
	Rounds         int      `mapstructure:"rounds" validate:"gt=0,lte=100000"`
	Seed           uint64   `mapstructure:"seed"`
	SpeedMS        int      `mapstructure:"speed_ms" validate:"gte=0"`
}

// InitialBalanceDecimal returns the initial balance as a decimal amount.
func (s *SimulationConfig) InitialBalanceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.InitialBalance)
}

// MinBetDecimal returns the base stake as a decimal amount.
func (s *SimulationConfig) MinBetDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.MinBet)
}

// MaxBetDecimal returns the per-round stake cap as a decimal amount.
func (s *SimulationConfig) MaxBetDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.MaxBet)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// ServerConfig holds HTTP server and session settings.
type ServerConfig struct {
	Addr             string        `mapstructure:"addr"`
	SessionCacheSize int           `mapstructure:"session_cache_size" validate:"gt=0"`
	SessionTTL       time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. SIMULATION_VARIANT, DATABASE_HOST, SERVER_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars and defaults can provide everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.variant", "EUROPEAN_STYLE")
	v.SetDefault("simulation.spot_generation", "RANDOM")
	v.SetDefault("simulation.initial_balance", 1000)
	v.SetDefault("simulation.min_bet", 1)
	v.SetDefault("simulation.max_bet", 100)
	v.SetDefault("simulation.strategies", []string{"martingale", "fixed", "cocomo"})
	v.SetDefault("simulation.rounds", 1000)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.speed_ms", 100)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "roulette")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "roulette")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.session_cache_size", 128)
	v.SetDefault("server.session_ttl", "30m")
	v.SetDefault("server.lock_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}
