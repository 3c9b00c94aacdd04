package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeWeb      = "web"
	ModeTerminal = "terminal"

	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var (
	ErrUnknownMode     = errors.New("unknown mode")
	ErrUnknownDriver   = errors.New("unknown storage driver")
	ErrUnknownLogLevel = errors.New("unknown log level")
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFile    string  `yaml:"log-file" env:"LOG_FILE" env-default:"tictactoe.log"`
	Mode       string  `yaml:"mode" env:"MODE" env-default:"web"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Storage    Storage `yaml:"storage"`
	Redis      Redis   `yaml:"redis"`
}

type Storage struct {
	Driver     string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"STORAGE_SESSION_TTL" env-default:"30m"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load - reads the yaml file, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Mode {
	case ModeWeb, ModeTerminal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, that.Mode)
	}

	switch that.Storage.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.Storage.Driver)
	}

	if _, err := that.Level(); err != nil {
		return err
	}

	return nil
}

// Level - parsed log level.
func (that *Config) Level() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(that.LogLevel)); err != nil {
		return level, fmt.Errorf("%w: %q", ErrUnknownLogLevel, that.LogLevel)
	}

	return level, nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
