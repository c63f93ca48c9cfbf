package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Port         string
	DatabaseDSN  string
	JWTSecret    []byte
	TokenTTL     time.Duration
	AllowOrigins []string
	// StaticDir, when set, is a built SPA bundle served behind the session gate.
	StaticDir string
}

// Load reads configuration from the environment. godotenv is expected to have
// populated it from .env already (done in main).
func Load() *Config {
	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		DatabaseDSN:  os.Getenv("DB_DSN"),
		TokenTTL:     24 * time.Hour,
		AllowOrigins: []string{"http://localhost:3000"},
		StaticDir:    os.Getenv("STATIC_DIR"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	cfg.JWTSecret = []byte(secret)

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("invalid TOKEN_TTL %q: %v", ttl, err)
		}
		cfg.TokenTTL = d
	}

	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	return cfg
}

// InitDB opens the Postgres connection. The DSN is mandatory; there is no
// embedded fallback store.
func InitDB(cfg *Config) *gorm.DB {
	if cfg.DatabaseDSN == "" {
		log.Fatal("DB_DSN is not set. This service requires a Postgres DSN in DB_DSN.")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
