// Package config collects every environment-driven setting into one value
// built at process start. Components receive the pieces they need by
// reference; nothing reads the environment per call.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/model"
)

// Config is the process-wide configuration.
type Config struct {
	DatabaseDSN string
	Port        string
	JWTSecret   string

	// Authority simulation knobs
	SIITimeout time.Duration // upper bound on any authority call
	SIILatency time.Duration // simulated processing delay
	SIISeed    int64         // seed for the simulated status verdicts

	CORSOrigins []string

	// Issuer defaults used by the renderer when no company profile is active.
	CompanyDefaults model.CompanyProfile
}

// Load builds the Config from environment variables with the same fallbacks
// the original deployment used.
func Load() *Config {
	dsn := "postgres://" + getenv("DB_USER", "postgres") +
		":" + getenv("DB_PASSWORD", "postgres") +
		"@" + getenv("DB_HOST", "localhost") +
		":" + getenv("DB_PORT", "5432") +
		"/" + getenv("DB_NAME", "erp_facturas") +
		"?sslmode=" + getenv("DB_SSLMODE", "disable")

	return &Config{
		DatabaseDSN: dsn,
		Port:        getenv("PORT", "8080"),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret-change-me"),
		SIITimeout:  getenvDuration("SII_TIMEOUT", 10*time.Second),
		SIILatency:  getenvDuration("SII_LATENCY", time.Second),
		SIISeed:     getenvInt64("SII_SEED", time.Now().UnixNano()),
		CORSOrigins: strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ","),
		CompanyDefaults: model.CompanyProfile{
			CompanyRUT:   getenv("EMPRESA_RUT", "76162804-6"),
			CompanyName:  getenv("EMPRESA_NOMBRE", "Empresa Demo Ltda"),
			BusinessLine: getenv("EMPRESA_GIRO", "Servicios Tecnológicos"),
			ActivityCode: getenv("EMPRESA_ACTECO", "620200"),
			Address:      getenv("EMPRESA_DIRECCION", "Av. Las Condes 123"),
			Commune:      getenv("EMPRESA_COMUNA", "Las Condes"),
			City:         getenv("EMPRESA_CIUDAD", "Santiago"),
			Phone:        getenv("EMPRESA_TELEFONO", "+56 2 2345 6789"),
			Email:        getenv("EMPRESA_EMAIL", "contacto@empresa.cl"),
			Environment:  model.EnvironmentCertification,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
