package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// DemoBypass lets the workflow skip identity verification. Never enable outside demos.
	DemoBypass bool

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Provider    ProviderConfig
	Tracing     TracingConfig

	ResumeSigningKey string
	ResumeTokenTTL   time.Duration

	NameCheckRate  float64
	NameCheckBurst int
	SweepInterval  time.Duration

	// OnboardingFile optionally points at a YAML policy file; see LoadOnboarding.
	OnboardingFile string
	Onboarding     Onboarding
}

// RedisConfig holds connection settings for the Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for domain event publishing.
type KafkaConfig struct {
	Brokers string
	Topic   string
	Acks    string
}

// TracingConfig controls OpenTelemetry export. Disabled leaves the no-op tracer in place.
type TracingConfig struct {
	Enabled bool
	// Exporter is "otlp" (default) or "stdout".
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// ProviderConfig selects the verification provider. An empty BaseURL selects the seeded mock.
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	MockSeed    int64
	MockLatency time.Duration
	// MockTaken pre-registers entity names with the mock registry.
	MockTaken []string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// The onboarding policy is loaded from OnboardingFile when set, else Defaults().
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        envOr("RESIDENCY_ADDR", ":8080"),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		DemoBypass:  os.Getenv("DEMO_BYPASS") == "true",
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   envOr("KAFKA_ONBOARDING_TOPIC", "onboarding.events"),
			Acks:    envOr("KAFKA_ACKS", "all"),
		},
		Provider: ProviderConfig{
			BaseURL:     os.Getenv("VERIFICATION_PROVIDER_URL"),
			APIKey:      os.Getenv("VERIFICATION_PROVIDER_API_KEY"),
			MockSeed:    int64(envInt("MOCK_PROVIDER_SEED", 42)),
			MockLatency: envDuration("MOCK_PROVIDER_LATENCY", 150*time.Millisecond),
			MockTaken:   envList("MOCK_PROVIDER_TAKEN_NAMES"),
		},
		Tracing: TracingConfig{
			Enabled:      os.Getenv("OTEL_TRACING_ENABLED") == "true",
			Exporter:     os.Getenv("OTEL_TRACES_EXPORTER"),
			Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRate: envFloat("OTEL_SAMPLING_RATE", 0.1),
		},
		ResumeSigningKey: os.Getenv("RESUME_SIGNING_KEY"),
		ResumeTokenTTL:   envDuration("RESUME_TOKEN_TTL", 7*24*time.Hour),
		NameCheckRate:    envFloat("NAME_CHECK_RATE", 5),
		NameCheckBurst:   envInt("NAME_CHECK_BURST", 10),
		SweepInterval:    envDuration("ABANDON_SWEEP_INTERVAL", time.Hour),
		OnboardingFile:   os.Getenv("ONBOARDING_CONFIG_FILE"),
	}

	if cfg.ResumeSigningKey == "" {
		// Development default; production deployments must override it.
		cfg.ResumeSigningKey = "dev-resume-key-change-in-production"
	}

	policy := Defaults()
	if cfg.OnboardingFile != "" {
		loaded, err := LoadOnboarding(cfg.OnboardingFile)
		if err != nil {
			return Server{}, err
		}
		policy = loaded
	}
	if n := envInt("MAX_VERIFICATION_ATTEMPTS", 0); n > 0 {
		policy.MaxVerificationAttempts = n
	}
	if d := envDuration("VERIFICATION_TIMEOUT", 0); d > 0 {
		policy.VerificationTimeout = d
	}
	if err := policy.Validate(); err != nil {
		return Server{}, err
	}
	cfg.Onboarding = policy

	return cfg, nil
}

// IsProduction reports whether the process runs with production safeguards.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
