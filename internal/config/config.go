// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion     string
	RulesS3Bucket string
	RulesS3Prefix string

	// Rule store
	RulesDir        string
	PortalsJSONPath string

	// Knowledge base vector store
	KBHost     string
	KBPort     int
	KBName     string
	KBUser     string
	KBPassword string

	// Embedding API
	EmbeddingAPIURL string
	EmbeddingAPIKey string
	EmbeddingModel  string
	RetrievalTopK   int

	// SES
	SESSenderEmail string

	// Application
	Stage    string
	LogLevel string
	Port     string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		RulesS3Bucket: getEnv("RULES_S3_BUCKET", ""),
		RulesS3Prefix: getEnv("RULES_S3_PREFIX", "carriers/"),

		// Rule store
		RulesDir:        getEnv("RULES_DIR", "carriers"),
		PortalsJSONPath: getEnv("PORTALS_JSON_PATH", ""),

		// Knowledge base vector store
		KBHost:     getEnv("KB_DB_HOST", "localhost"),
		KBPort:     getEnvInt("KB_DB_PORT", 5432),
		KBName:     getEnv("KB_DB_NAME", "carrier_kb"),
		KBUser:     getEnv("KB_DB_USER", "postgres"),
		KBPassword: getEnv("KB_DB_PASSWORD", ""),

		// Embedding API
		EmbeddingAPIURL: getEnv("EMBEDDING_API_URL", "https://api.openai.com/v1/embeddings"),
		EmbeddingAPIKey: getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		RetrievalTopK:   getEnvInt("RETRIEVAL_TOP_K", 20),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
	}

	return cfg, nil
}

// KBDatabaseURL returns the PostgreSQL connection string for the knowledge
// base vector store.
func (c *Config) KBDatabaseURL() string {
	sslMode := "require" // Use SSL for RDS
	if c.KBHost == "localhost" || c.KBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	return "postgres://" + c.KBUser + ":" + c.KBPassword + "@" + c.KBHost + ":" + strconv.Itoa(c.KBPort) + "/" + c.KBName + "?sslmode=" + sslMode
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
