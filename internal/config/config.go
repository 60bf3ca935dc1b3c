package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration, loaded from the environment with
// development defaults. A .env file is honored when present.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURI string

	JWTSecret string

	// QREndpoint is the base URL of the QR image collaborator. Empty
	// disables image generation; invites fall back to text codes.
	QREndpoint string

	// RemoteTimeout bounds every remote collaborator call.
	RemoteTimeout time.Duration

	// InviteMaxAge is how long invite side-table entries live before the
	// pruner considers them for collection.
	InviteMaxAge time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "mjjf"),
		RedisURI:      getEnv("REDIS_URI", "localhost:6379"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		QREndpoint:    os.Getenv("QR_ENDPOINT"),
		RemoteTimeout: time.Duration(getInt("REMOTE_TIMEOUT_SECONDS", 10)) * time.Second,
		InviteMaxAge:  time.Duration(getInt("INVITE_MAX_AGE_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
