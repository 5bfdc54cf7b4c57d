package config

import "time"

// Defaults for the dispatch loop. Changing these shifts the service's load
// profile against the upstream quota, so they are spelled out here rather
// than scattered through the loader.
const (
	DefaultDeleteChunkSize   = 1000
	DefaultMinModifySize     = 5
	DefaultMaxModifySize     = 50
	DefaultInitialModifySize = 15
	DefaultInterBatchDelay   = 500 * time.Millisecond
	DefaultMicroDelay        = 10 * time.Millisecond
	DefaultMaxRetryAttempts  = 4
	DefaultInitialBackoff    = 2 * time.Second
	DefaultMaxBackoff        = 60 * time.Second
	DefaultBackoffMultiplier = 2.5

	DefaultFailureThreshold = 3
	DefaultCoolingOffPeriod = 30 * time.Second
	DefaultBreakerMaxWait   = 5 * time.Second
)

// ApplyDefaults fills zero-valued fields in place. It runs after unmarshal so
// that a partial config file still yields a fully workable Config.
func ApplyDefaults(c *Config) {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.MailAPI.UserID == "" {
		c.MailAPI.UserID = "me"
	}
	if c.MailAPI.Timeout == 0 {
		c.MailAPI.Timeout = 120 * time.Second
	}

	if c.Batch.DeleteChunkSize == 0 {
		c.Batch.DeleteChunkSize = DefaultDeleteChunkSize
	}
	if c.Batch.MinModifySize == 0 {
		c.Batch.MinModifySize = DefaultMinModifySize
	}
	if c.Batch.MaxModifySize == 0 {
		c.Batch.MaxModifySize = DefaultMaxModifySize
	}
	if c.Batch.InitialModifySize == 0 {
		c.Batch.InitialModifySize = DefaultInitialModifySize
	}
	if c.Batch.InterBatchDelay == 0 {
		c.Batch.InterBatchDelay = DefaultInterBatchDelay
	}
	if c.Batch.MicroDelay == 0 {
		c.Batch.MicroDelay = DefaultMicroDelay
	}
	if c.Batch.MaxRetryAttempts == 0 {
		c.Batch.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if c.Batch.InitialBackoff == 0 {
		c.Batch.InitialBackoff = DefaultInitialBackoff
	}
	if c.Batch.MaxBackoff == 0 {
		c.Batch.MaxBackoff = DefaultMaxBackoff
	}
	if c.Batch.BackoffMultiplier == 0 {
		c.Batch.BackoffMultiplier = DefaultBackoffMultiplier
	}

	if c.CircuitBreaker.FailureThreshold == 0 {
		c.CircuitBreaker.FailureThreshold = DefaultFailureThreshold
	}
	if c.CircuitBreaker.CoolingOffPeriod == 0 {
		c.CircuitBreaker.CoolingOffPeriod = DefaultCoolingOffPeriod
	}
	if c.CircuitBreaker.MaxWait == 0 {
		c.CircuitBreaker.MaxWait = DefaultBreakerMaxWait
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "internal/infrastructure/database/postgres/migrations"
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "mailsweep.operations"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
