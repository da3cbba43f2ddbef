package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
)

// Config holds the process-level runtime configuration. Booking rules
// live in Booking (booking.go); Redis, rate limiting and caching have
// their own loaders.
type Config struct {
	Env         string   // application environment (dev, test, prod)
	Port        string   // HTTP port to listen on
	DBUser      string   // database username
	DBPass      string   // database password (optional)
	DBHost      string   // database host address
	DBPort      string   // database port number
	DBName      string   // database name
	JWTSecret   string   // HS256 secret shared with the identity provider
	LogLevel    string   // zap level: debug, info, warn, error
	LogFormat   string   // console or json
	AMQPURL     string   // broker URL; empty disables booking events
	BookingLog  string   // file the confirmation consumer appends to
	CORSOrigins []string // allowed browser origins
}

// Load reads configuration values from environment variables. Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        must("APP_PORT"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),
		AMQPURL:     amqpURL(),
		BookingLog:  envStr("BOOKING_LOG_PATH", "logs/booking.log"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}
}

// amqpURL prefers RABBITMQ_URL and falls back to AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
