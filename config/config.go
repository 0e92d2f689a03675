package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Reward    RewardConfig    `mapstructure:"reward"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// ChainConfig configures the on-chain stablecoin transfer client.
type ChainConfig struct {
	RPCEndpoint     string        `mapstructure:"rpc_endpoint"`
	ChainID         int64         `mapstructure:"chain_id"`
	TokenContract   string        `mapstructure:"token_contract"`
	TokenDecimals   int32         `mapstructure:"token_decimals"`
	PrivateKey      string        `mapstructure:"private_key"` // hot wallet key, hex
	GasLimit        uint64        `mapstructure:"gas_limit"`
	TransferTimeout time.Duration `mapstructure:"transfer_timeout"`
}

// RewardConfig tunes the reward pipeline.
type RewardConfig struct {
	BatchSize   int           `mapstructure:"batch_size"`   // bulk-insert chunk size
	RunLockTTL  time.Duration `mapstructure:"run_lock_ttl"` // disbursement run lock lifetime
	LockEnabled bool          `mapstructure:"lock_enabled"` // disable only in tests
}

// SchedulerConfig controls the in-process daily pipeline runner.
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	RunAt   string `mapstructure:"run_at"` // HH:MM:SS, reporting timezone
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: RSAC_.
// Nested keys use underscore: RSAC_DATABASE_HOST, RSAC_CHAIN_RPC_ENDPOINT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "rsac_rewards")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "rsac-reward-service")
	v.SetDefault("chain.rpc_endpoint", "")
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.token_contract", "")
	v.SetDefault("chain.token_decimals", 6)
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.gas_limit", 90000)
	v.SetDefault("chain.transfer_timeout", "90s")
	v.SetDefault("reward.batch_size", 1000)
	v.SetDefault("reward.run_lock_ttl", "10m")
	v.SetDefault("reward.lock_enabled", true)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.run_at", "00:10:00")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: RSAC_DATABASE_HOST -> database.host
	v.SetEnvPrefix("RSAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
