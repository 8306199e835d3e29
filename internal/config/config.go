// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIP string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
}

type Database struct {
	Host             string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port             string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User             string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password         string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name             string        `yaml:"name" env:"DB_NAME" env-default:"eventpass"`
	SSLMode          string        `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConns         int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"20"`
	MinConns         int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"2"`
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DB_STATEMENT_TIMEOUT" env-default:"5s"`
	LockTimeout      time.Duration `yaml:"lock_timeout" env:"DB_LOCK_TIMEOUT" env-default:"3s"`
	ConnectAttempts  int           `yaml:"connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type Ticket struct {
	Namespace string `yaml:"namespace" env:"TICKET_NAMESPACE" env-default:"eventhub"`
	Secret    string `yaml:"secret" env:"QR_SECRET" env-required:"true"`
	Currency  string `yaml:"currency" env:"TICKET_CURRENCY" env-default:"RUB"`
}

type API struct {
	Key            string        `yaml:"key" env:"API_KEY" env-required:"true"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"API_REQUEST_TIMEOUT" env-default:"10s"`
}

type Gate struct {
	PinLength   int           `yaml:"pin_length" env:"GATE_PIN_LENGTH" env-default:"6"`
	MaxAttempts int64         `yaml:"max_attempts" env:"GATE_MAX_ATTEMPTS" env-default:"5"`
	Window      time.Duration `yaml:"window" env:"GATE_WINDOW" env-default:"15m"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token" env:"BOT_TOKEN" env-default:""`
}

type Log struct {
	Path       string `yaml:"path" env:"LOG_PATH" env-default:"/var/log/eventpass.log"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"50"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"30"`
}

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	Listen   Listen   `yaml:"listen"`
	Database Database `yaml:"database"`
	Ticket   Ticket   `yaml:"ticket"`
	API      API      `yaml:"api"`
	Gate     Gate     `yaml:"gate"`
	Redis    Redis    `yaml:"redis"`
	Telegram Telegram `yaml:"telegram"`
	Log      Log      `yaml:"log"`
}

// Load reads the YAML file at path and applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var conf Config
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&conf)
	} else {
		err = cleanenv.ReadConfig(path, &conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(&conf, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &conf, nil
}

func (c *Config) validate() error {
	if len(c.Ticket.Secret) < 16 {
		return fmt.Errorf("ticket secret must be at least 16 bytes")
	}
	if c.Gate.PinLength < 4 || c.Gate.PinLength > 12 {
		return fmt.Errorf("gate pin length must be between 4 and 12")
	}
	return nil
}
