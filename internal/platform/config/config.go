package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"paycustom/internal/decision"
	pkgstrings "paycustom/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	SeedFile        string

	// HTTPReadTimeout and HTTPWriteTimeout bound a single request; zero keeps
	// the server defaults.
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	Decision DecisionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// DecisionConfig configures the decision engine.
type DecisionConfig struct {
	// MatchStrategy names how the configured payment method name is matched
	// against checkout payment method names: substring, exact, case_insensitive.
	MatchStrategy string
}

// PostgresConfig configures the customization store. An empty URL selects
// the in-memory store.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the configuration cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
	// BreakerCooldown is how long the cache is bypassed after repeated failures.
	BreakerCooldown time.Duration
}

// KafkaConfig configures the audit sink. No brokers keeps audit in memory.
type KafkaConfig struct {
	Brokers     []string
	ClientID    string
	AuditTopic  string
	Partitions  int32
	Replication int16
	AuditBuffer int
	// AuditRetain caps the events kept in memory when no brokers are set.
	AuditRetain int
}

// FromEnv builds the Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            getEnv("PAYCUSTOM_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SeedFile:        os.Getenv("CUSTOMIZATION_SEED_FILE"),
		ShutdownTimeout: 10 * time.Second,
		Decision: DecisionConfig{
			MatchStrategy: getEnv("DECISION_MATCH_STRATEGY", decision.StrategySubstring),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			CacheTTL:     5 * time.Minute,

			BreakerCooldown: 10 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     pkgstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			ClientID:    getEnv("KAFKA_CLIENT_ID", "paycustom"),
			AuditTopic:  getEnv("KAFKA_AUDIT_TOPIC", "payment-customization.audit"),
			Partitions:  3,
			Replication: 1,
			AuditBuffer: 4096,
			AuditRetain: 1024,
		},
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Server{}, err
	}
	if cfg.HTTPReadTimeout, err = durationEnv("HTTP_READ_TIMEOUT", cfg.HTTPReadTimeout); err != nil {
		return Server{}, err
	}
	if cfg.HTTPWriteTimeout, err = durationEnv("HTTP_WRITE_TIMEOUT", cfg.HTTPWriteTimeout); err != nil {
		return Server{}, err
	}
	if cfg.Redis.CacheTTL, err = durationEnv("REDIS_CACHE_TTL", cfg.Redis.CacheTTL); err != nil {
		return Server{}, err
	}
	if cfg.Redis.BreakerCooldown, err = durationEnv("REDIS_BREAKER_COOLDOWN", cfg.Redis.BreakerCooldown); err != nil {
		return Server{}, err
	}
	if cfg.Postgres.MaxOpenConns, err = intEnv("DATABASE_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.AuditBuffer, err = intEnv("AUDIT_BUFFER_SIZE", cfg.Kafka.AuditBuffer); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.AuditRetain, err = intEnv("AUDIT_MEMORY_RETAIN", cfg.Kafka.AuditRetain); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (s Server) Validate() error {
	if _, err := decision.ParseMatchStrategy(s.Decision.MatchStrategy); err != nil {
		return fmt.Errorf("DECISION_MATCH_STRATEGY: %w", err)
	}
	if s.Redis.URL != "" && s.Redis.CacheTTL <= 0 {
		return fmt.Errorf("REDIS_CACHE_TTL must be positive")
	}
	if s.Redis.URL != "" && s.Redis.BreakerCooldown <= 0 {
		return fmt.Errorf("REDIS_BREAKER_COOLDOWN must be positive")
	}
	if len(s.Kafka.Brokers) > 0 && s.Kafka.AuditTopic == "" {
		return fmt.Errorf("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set")
	}
	if s.Kafka.AuditBuffer <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive")
	}
	if s.Kafka.AuditRetain <= 0 {
		return fmt.Errorf("AUDIT_MEMORY_RETAIN must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
