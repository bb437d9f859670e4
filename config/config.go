package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the coursecast services.
// Values come from the environment, with a .env file loaded if present.
type Config struct {
	// GenerationAPIURL is the base URL of the course generation service
	GenerationAPIURL string

	// Port is the HTTP port for the playback API server
	Port string

	// RedisAddr enables the course cache when non-empty
	RedisAddr string
	RedisPass string

	// KafkaBrokers enables the Kafka notification sink when non-empty
	KafkaBrokers []string
	KafkaTopic   string

	// LogMode selects the zap config ("dev" or "prod")
	LogMode string
}

// Load reads configuration from the environment. Missing a .env file is not
// an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		GenerationAPIURL: GetEnvOrDefault("GENERATION_API_URL", "http://localhost:8000"),
		Port:             GetEnvOrDefault("PORT", "8080"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPass:        os.Getenv("REDIS_PASS"),
		KafkaTopic:       GetEnvOrDefault("KAFKA_TOPIC", "course-generation-events"),
		LogMode:          GetEnvOrDefault("LOG_MODE", "dev"),
	}

	if brokers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg
}

// GetEnvOrDefault returns the value of an environment variable or a default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
