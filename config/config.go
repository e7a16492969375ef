package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-progression/db"
	"github.com/Dosada05/tournament-progression/storage"
	"github.com/joho/godotenv"
)

// Config holds every setting of the application.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	R2 storage.CloudflareR2Config
}

// Load reads the configuration from the environment, loading a .env file first if one
// exists (handy for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = db.DriverPostgres
	}
	if driver != db.DriverPostgres && driver != db.DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	rps := 20.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err = strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS environment variable: %q", v)
		}
	}
	burst, err := intFromEnv("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, err
	}
	if burst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", burst)
	}

	origins := []string{"*"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	r2 := storage.CloudflareR2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	cfg := &Config{
		DatabaseDriver:     driver,
		DatabaseURL:        dbURL,
		ServerPort:         port,
		CORSAllowedOrigins: origins,
		RateLimitRPS:       rps,
		RateLimitBurst:     burst,
		R2:                 r2,
	}

	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}
