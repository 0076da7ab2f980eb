// Package config загружает конфигурацию бинарников каталога.
//
// Порядок: значения по умолчанию, затем файл (YAML или TOML по
// расширению), затем переменные окружения. Результат проверяется Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Lineage/internal/mq"
	"github.com/shaiso/Lineage/internal/repo"
)

// Режимы хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ErrInvalidConfig возвращается Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config содержит параметры запуска.
type Config struct {
	// Storage: memory или postgres.
	Storage string `yaml:"storage" toml:"storage"`

	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	DBMaxConns  int32  `yaml:"db_max_conns" toml:"db_max_conns"`

	// RabbitMQURL пустой отключает публикацию событий в брокер.
	RabbitMQURL string `yaml:"rabbitmq_url" toml:"rabbitmq_url"`

	APIPort int `yaml:"api_port" toml:"api_port"`

	// LegacyDatasetWrites разрешает устаревший путь записи CreateOrUpdate.
	LegacyDatasetWrites bool `yaml:"legacy_dataset_writes" toml:"legacy_dataset_writes"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Storage:     StoragePostgres,
		DatabaseURL: repo.DefaultDSN,
		DBMaxConns:  10,
		RabbitMQURL: mq.DefaultURL,
		APIPort:     8080,
		LogLevel:    "INFO",
		LogFormat:   "json",
	}
}

// Load собирает конфигурацию: Default, файл path (если задан),
// переменные окружения из getenv (если задан).
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if getenv != nil {
		if err := cfg.applyEnv(getenv); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile читает файл по расширению: .yaml, .yml или .toml.
// Поля, которых нет в файле, сохраняют текущие значения.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv переопределяет поля из переменных окружения.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STORAGE"); v != "" {
		c.Storage = strings.ToLower(v)
	}
	if v := getenv("DB_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQURL = v
	}
	if v := getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: API_PORT: %v", ErrInvalidConfig, err)
		}
		c.APIPort = port
	}
	if v := getenv("LEGACY_DATASET_WRITES"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LEGACY_DATASET_WRITES: %v", ErrInvalidConfig, err)
		}
		c.LegacyDatasetWrites = on
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate проверяет согласованность значений.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for postgres storage", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("%w: api_port %d out of range", ErrInvalidConfig, c.APIPort)
	}
	if c.DBMaxConns < 0 {
		return fmt.Errorf("%w: db_max_conns must not be negative", ErrInvalidConfig)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: log_format must be json or text", ErrInvalidConfig)
	}
	return nil
}

// Addr возвращает адрес HTTP сервера.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.APIPort)
}

// PoolConfig возвращает параметры пула Postgres.
func (c Config) PoolConfig() repo.PoolConfig {
	return repo.PoolConfig{DSN: c.DatabaseURL, MaxConns: c.DBMaxConns}
}
