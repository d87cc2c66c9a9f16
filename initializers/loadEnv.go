package initializers

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DBDriver string
	DBDSN    string
	DBDebug  bool

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	ShippingFee      float64
	TaxRate          float64
	OrderMaxAttempts int
	OrderTimeout     time.Duration

	CORSOrigins []string

	UploadBackend string
	UploadDir     string
	S3Bucket      string

	SMTPAddress       string
	FromEmail         string
	FromEmailPassword string
	FromEmailSMTP     string
}

const devJWTSecret = "campus-store-dev-secret"

var Cfg Config

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LoadEnv reads .env when present and fills Cfg from the environment.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Error loading .env file")
	}

	cfg, err := ReadConfig()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	Cfg = cfg
}

// ReadConfig builds a Config from environment variables, applying defaults.
func ReadConfig() (Config, error) {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:    getEnv("DB_DSN", "store.db"),
		DBDebug:  getEnvBool("DB_DEBUG", false),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvDuration("JWT_TTL", 720*time.Hour),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		ShippingFee:      getEnvFloat("SHIPPING_FEE", 400),
		TaxRate:          getEnvFloat("TAX_RATE", 0),
		OrderMaxAttempts: getEnvInt("ORDER_MAX_ATTEMPTS", 3),
		OrderTimeout:     getEnvDuration("ORDER_TIMEOUT", 10*time.Second),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		UploadBackend: strings.ToLower(getEnv("UPLOAD_BACKEND", "local")),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:      os.Getenv("S3_BUCKET"),

		SMTPAddress:       os.Getenv("SMTP_ADDRESS"),
		FromEmail:         os.Getenv("FROM_EMAIL"),
		FromEmailPassword: os.Getenv("FROM_EMAIL_PASSWORD"),
		FromEmailSMTP:     os.Getenv("FROM_EMAIL_SMTP"),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return cfg, errors.New("JWT_SECRET must be set outside development")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "sqlite" {
		return cfg, errors.New("DB_DRIVER must be mysql or sqlite")
	}
	if cfg.UploadBackend != "local" && cfg.UploadBackend != "s3" {
		return cfg, errors.New("UPLOAD_BACKEND must be local or s3")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
