// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration.
type Server struct {
	Addr            string        `env:"FAMTREE_ADDR" envDefault:":8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"famtree"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	// LockTTL must outlast the longest locked request: the request timeout
	// plus one detached commit and its announcement.
	LockTTL         time.Duration `env:"LOCK_TTL" envDefault:"45s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the owner lock backend. An empty URL selects the
// in-process lock.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the change feed. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic             string   `env:"CHANGEFEED_TOPIC" envDefault:"famtree.person-changes"`
	Partitions        int32    `env:"CHANGEFEED_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"CHANGEFEED_REPLICATION_FACTOR" envDefault:"1"`
	// PublishTimeout bounds each announcement, which runs while the owner
	// lock is held.
	PublishTimeout time.Duration `env:"CHANGEFEED_PUBLISH_TIMEOUT" envDefault:"2s"`
}

// Enabled reports whether a change feed should be started.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// FromEnv parses the environment into a Server config.
func FromEnv() (Server, error) {
	cfg, err := env.ParseAs[Server]()
	if err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// maxLockHold is how long a mutating request can keep the owner lock. The
// commit ignores the request deadline, so one may start just before it.
func (s Server) maxLockHold() time.Duration {
	hold := s.RequestTimeout + s.StoreTimeout
	if s.Kafka.Enabled() {
		hold += s.Kafka.PublishTimeout
	}
	return hold
}

// Validate rejects settings the service cannot run with.
func (s Server) Validate() error {
	var errs []error
	if s.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if s.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if s.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	} else if hold := s.maxLockHold(); s.LockTTL <= hold {
		errs = append(errs, fmt.Errorf("LOCK_TTL must exceed %s, the longest a locked request can run", hold))
	}
	if s.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must not be empty"))
	}
	if s.Kafka.Enabled() && s.Kafka.Topic == "" {
		errs = append(errs, errors.New("CHANGEFEED_TOPIC must be set when KAFKA_BROKERS is"))
	}
	if s.Kafka.Enabled() && s.Kafka.PublishTimeout <= 0 {
		errs = append(errs, errors.New("CHANGEFEED_PUBLISH_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
