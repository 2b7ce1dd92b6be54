package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis             Redis         `yaml:"redis"`
	SQLiteStoragePath string        `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"custody.db"`
	JWTSecretKey      string        `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	TokenTTL          time.Duration `yaml:"token-ttl" env:"TOKEN_TTL" env-default:"24h"`
	Escrow            Escrow        `yaml:"escrow"`
	Dev               Dev           `yaml:"dev"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Escrow holds the inputs the escrow authority is derived from.
type Escrow struct {
	ProgramID string `yaml:"program-id" env:"ESCROW_PROGRAM_ID" env-default:"tictactoe-escrow"`
	Seed      string `yaml:"seed" env:"ESCROW_SEED" env-default:"authority"`
}

// Dev enables endpoints that must never be exposed in production.
type Dev struct {
	IssueTokens bool `yaml:"issue-tokens" env:"DEV_ISSUE_TOKENS" env-default:"false"`
	Faucet      bool `yaml:"faucet" env:"DEV_FAUCET" env-default:"false"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if config.JWTSecretKey == "" {
		panic("jwt-secret-key must be set")
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
