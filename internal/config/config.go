package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`

	Storage     string `env:"STORAGE" env-default:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	TokenCacheTTL time.Duration `env:"TOKEN_CACHE_TTL" env-default:"30s"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" env-default:"myblog."`

	JWTAlg        string        `env:"JWT_ALG" env-default:"HS256"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTPrivateKey string        `env:"JWT_PRIVATE_KEY"`
	JWTPublicKey  string        `env:"JWT_PUBLIC_KEY"`
	JWTIssuer     string        `env:"JWT_ISSUER" env-default:"myblog"`
	JWTAudience   string        `env:"JWT_AUDIENCE" env-default:"myblog-api"`
	JWTTTL        time.Duration `env:"JWT_TTL" env-default:"24h"`

	BcryptCost     int      `env:"BCRYPT_COST" env-default:"10"`
	LoginRateLimit int      `env:"LOGIN_RATE_LIMIT" env-default:"10"`
	CORSOrigins    []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELService  string `env:"OTEL_SERVICE_NAME" env-default:"myblog"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
	// MediaBaseURL prefixes object URLs when S3_BUCKET is unset.
	MediaBaseURL string `env:"MEDIA_BASE_URL" env-default:"http://localhost:8080/media"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminDisplay  string `env:"ADMIN_DISPLAY_NAME" env-default:"Administrator"`
}

func Load() (*Config, error) {
	var cfg Config

	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE %q", c.Storage)
	}

	switch strings.ToUpper(c.JWTAlg) {
	case "HS256":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for HS256")
		}
	case "RS256", "ES256":
		if c.JWTPrivateKey == "" || c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required for %s", c.JWTAlg)
		}
	default:
		return fmt.Errorf("unsupported JWT_ALG %q", c.JWTAlg)
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.RedisAddr != "" && c.TokenCacheTTL <= 0 {
		return fmt.Errorf("TOKEN_CACHE_TTL must be positive when REDIS_ADDR is set")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}
