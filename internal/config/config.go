package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
)

// Config holds all runtime configuration values read once at process start.
// Each field corresponds to an environment variable. Secrets (JWT signing
// secret, field encryption key) are required; TTLs and costs fall back to
// sensible defaults.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign session tokens
	AccessTTLMin  int    // session token time-to-live in minutes
	EncryptionKey string // 64 hex chars = 32-byte AES-256 key for field encryption
	BcryptCost    int    // bcrypt cost for password hashing
	CookieSecure  bool   // whether the session cookie carries the Secure flag
}

// Load reads configuration from the environment. Required variables are
// enforced by must() and missing values cause the process to exit with a
// fatal log message. The encryption key's format is validated by the field
// cipher constructor so a malformed key surfaces as a config_error.
func Load() Config {
	env := must("APP_ENV")
	return Config{
		Env:           env,
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 60),
		EncryptionKey: must("ENCRYPTION_KEY"),
		BcryptCost:    envInt("BCRYPT_COST", 12),
		// Secure cookies default on in prod; COOKIE_SECURE overrides either way.
		CookieSecure: envBool("COOKIE_SECURE", env == "prod"),
	}
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
