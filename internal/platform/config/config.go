package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"onboarding/pkg/platform/strings"
)

// Server captures process-level configuration. Every field is read from the
// environment; defaults suit a single-node development deployment backed by
// in-memory stores.
type Server struct {
	OpsAddr     string `env:"ONBOARDING_OPS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string `env:"DATABASE_URL"`

	Redis      RedisConfig
	Kafka      KafkaConfig
	Onboarding OnboardingConfig
	Otp        OtpConfig
	Providers  ProvidersConfig
	Scheduler  SchedulerConfig
	Tracing    TracingConfig
}

// TracingConfig enables OTLP trace export. An empty endpoint disables it.
type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"onboarding"`
}

// RedisConfig configures the Redis client used for scheduler leases.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures process event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	ProcessEventTopic string   `env:"KAFKA_PROCESS_EVENT_TOPIC" envDefault:"onboarding.process-events"`
	Partitions        int32    `env:"KAFKA_PROCESS_EVENT_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"KAFKA_PROCESS_EVENT_REPLICATION" envDefault:"1"`
}

// OnboardingConfig holds the verification policy knobs.
type OnboardingConfig struct {
	Phases                  []string      `env:"ONBOARDING_PHASES" envSeparator:"," envDefault:"DOCUMENT_UPLOAD,DOCUMENT_VERIFICATION,PRESENCE_CHECK,OTP_VERIFICATION,COMPLETED"`
	ErrorScoreLimit         int           `env:"ONBOARDING_ERROR_SCORE_LIMIT" envDefault:"15"`
	ClientEvaluationEnabled bool          `env:"ONBOARDING_CLIENT_EVALUATION_ENABLED" envDefault:"false"`
	ActivationExpiration    time.Duration `env:"ONBOARDING_ACTIVATION_EXPIRATION" envDefault:"5m"`
	VerificationExpiration  time.Duration `env:"ONBOARDING_VERIFICATION_EXPIRATION" envDefault:"1h"`
	HookURL                 string        `env:"ONBOARDING_HOOK_URL"`
	HookTimeout             time.Duration `env:"ONBOARDING_HOOK_TIMEOUT" envDefault:"10s"`
}

// OtpConfig controls one-time code generation and verification.
type OtpConfig struct {
	Length      int           `env:"OTP_LENGTH" envDefault:"8"`
	Expiration  time.Duration `env:"OTP_EXPIRATION" envDefault:"5m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	HashCost    int           `env:"OTP_HASH_COST" envDefault:"10"`
}

// ProvidersConfig selects exactly one document and one presence-check
// provider for the deployment.
type ProvidersConfig struct {
	Document        string        `env:"DOCUMENT_VERIFICATION_PROVIDER" envDefault:"mock"`
	PresenceCheck   string        `env:"PRESENCE_CHECK_PROVIDER" envDefault:"mock"`
	Timeout         time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	MockPendingPoll int           `env:"PROVIDER_MOCK_PENDING_POLLS" envDefault:"1"`

	// CircuitFailures consecutive retryable failures open a provider's
	// circuit; zero disables circuit breaking.
	CircuitFailures int           `env:"PROVIDER_CIRCUIT_FAILURES" envDefault:"5"`
	CircuitCooldown time.Duration `env:"PROVIDER_CIRCUIT_COOLDOWN" envDefault:"30s"`
}

// SchedulerConfig controls the batch synchronization jobs.
type SchedulerConfig struct {
	Enabled     bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	Interval    time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"5s"`
	LockBackend string        `env:"SCHEDULER_LOCK_BACKEND" envDefault:"memory"`
	LockMinHold time.Duration `env:"SCHEDULER_LOCK_MIN_HOLD" envDefault:"1s"`
	LockMaxHold time.Duration `env:"SCHEDULER_LOCK_MAX_HOLD" envDefault:"5m"`
	Owner       string        `env:"SCHEDULER_OWNER"`
}

// FromEnv parses the environment into a Server config and validates it.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = strings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
// Phase order is validated by the verification package at wiring time.
func (c Server) Validate() error {
	var errs []error
	if c.Onboarding.ErrorScoreLimit <= 0 {
		errs = append(errs, errors.New("ONBOARDING_ERROR_SCORE_LIMIT must be positive"))
	}
	if c.Onboarding.VerificationExpiration <= 0 {
		errs = append(errs, errors.New("ONBOARDING_VERIFICATION_EXPIRATION must be positive"))
	}
	if c.Onboarding.ActivationExpiration <= 0 {
		errs = append(errs, errors.New("ONBOARDING_ACTIVATION_EXPIRATION must be positive"))
	}
	if c.Otp.Length < 4 || c.Otp.Length > 12 {
		errs = append(errs, errors.New("OTP_LENGTH must be within [4,12]"))
	}
	if c.Otp.MaxAttempts <= 0 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be positive"))
	}
	if c.Providers.CircuitFailures < 0 {
		errs = append(errs, errors.New("PROVIDER_CIRCUIT_FAILURES must not be negative"))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("SCHEDULER_INTERVAL must be positive"))
	}
	if c.Scheduler.LockMinHold < 0 || c.Scheduler.LockMaxHold <= c.Scheduler.LockMinHold {
		errs = append(errs, errors.New("SCHEDULER_LOCK_MAX_HOLD must exceed SCHEDULER_LOCK_MIN_HOLD"))
	}
	switch c.Scheduler.LockBackend {
	case "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown SCHEDULER_LOCK_BACKEND %q", c.Scheduler.LockBackend))
	}
	if c.Scheduler.LockBackend == "redis" && c.Redis.URL == "" {
		errs = append(errs, errors.New("SCHEDULER_LOCK_BACKEND=redis requires REDIS_URL"))
	}
	if c.Scheduler.LockBackend == "postgres" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("SCHEDULER_LOCK_BACKEND=postgres requires DATABASE_URL"))
	}
	return errors.Join(errs...)
}
