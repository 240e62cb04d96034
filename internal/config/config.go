package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Images      ImagesConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds the optional event broker settings. When URL is
// empty the service runs without a broker and confirmation events are
// discarded.
type RabbitMQConfig struct {
	URL                 string
	EventsExchange      string
	ConfirmedRoutingKey string
}

// ImagesConfig holds settings for derived reading image URLs
type ImagesConfig struct {
	BasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "utility-readings-service"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 3000),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:                 getEnv("RABBITMQ_URL", ""),
			EventsExchange:      getEnv("RABBITMQ_EVENTS_EXCHANGE", "utility-readings.events.exchange"),
			ConfirmedRoutingKey: getEnv("RABBITMQ_CONFIRMED_ROUTING_KEY", "reading.confirmed"),
		},
		Images: ImagesConfig{
			BasePath: getEnv("IMAGE_BASE_PATH", "/images"),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
