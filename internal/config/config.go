// Package config defines the service configuration model and its viper-based
// loader. Values come from a YAML file plus MAILSWEEP_* environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for all MailSweep binaries.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	MailAPI        MailAPIConfig        `mapstructure:"mail_api"`
	Batch          BatchConfig          `mapstructure:"batch"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Log            LogConfig            `mapstructure:"log"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MailAPIConfig points at the upstream mail provider.
type MailAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	UserID  string        `mapstructure:"user_id"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BatchConfig tunes the bulk-operation dispatch loop.
type BatchConfig struct {
	DeleteChunkSize   int           `mapstructure:"delete_chunk_size"`
	MinModifySize     int           `mapstructure:"min_modify_size"`
	MaxModifySize     int           `mapstructure:"max_modify_size"`
	InitialModifySize int           `mapstructure:"initial_modify_size"`
	InterBatchDelay   time.Duration `mapstructure:"inter_batch_delay"`
	MicroDelay        time.Duration `mapstructure:"micro_delay"`
	MaxRetryAttempts  int           `mapstructure:"max_retry_attempts"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
}

// CircuitBreakerConfig tunes the shared dispatch breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	CoolingOffPeriod time.Duration `mapstructure:"cooling_off_period"`
	MaxWait          time.Duration `mapstructure:"max_wait"`
}

// DatabaseConfig configures the PostgreSQL operation store.
// Optional: when Enabled is false the service keeps no durable history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig configures the result cache. Optional.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addrs    []string      `mapstructure:"addrs"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KafkaConfig configures the audit event publisher. Optional.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LogConfig mirrors logging.Config so config stays import-light.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// Validate checks cross-field constraints after defaults were applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.MailAPI.BaseURL == "" {
		return fmt.Errorf("config: mail_api.base_url is required")
	}
	if c.Batch.DeleteChunkSize <= 0 {
		return fmt.Errorf("config: batch.delete_chunk_size must be positive")
	}
	if c.Batch.MinModifySize <= 0 {
		return fmt.Errorf("config: batch.min_modify_size must be positive")
	}
	if c.Batch.MaxModifySize < c.Batch.MinModifySize {
		return fmt.Errorf("config: batch.max_modify_size %d below min %d",
			c.Batch.MaxModifySize, c.Batch.MinModifySize)
	}
	if c.Batch.MaxRetryAttempts < 0 {
		return fmt.Errorf("config: batch.max_retry_attempts must not be negative")
	}
	if c.Batch.BackoffMultiplier < 1 {
		return fmt.Errorf("config: batch.backoff_multiplier must be >= 1")
	}
	if c.Batch.MaxBackoff < c.Batch.InitialBackoff {
		return fmt.Errorf("config: batch.max_backoff below initial_backoff")
	}
	if c.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("config: circuit_breaker.failure_threshold must be positive")
	}
	if c.CircuitBreaker.CoolingOffPeriod <= 0 {
		return fmt.Errorf("config: circuit_breaker.cooling_off_period must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("config: database enabled but host/dbname missing")
		}
	}
	if c.Redis.Enabled && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("config: redis enabled but no addrs")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka enabled but no brokers")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka enabled but no topic")
		}
	}
	return nil
}
