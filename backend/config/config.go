package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	JWTSecret   string
	JWTTTLHours int
	ServerPort  string
	CORSOrigins string
	LogFormat   string

	// AI gateway (OpenAI-compatible chat completions)
	AIGatewayURL         string
	AIGatewayAPIKey      string
	AIModel              string
	AIFeedbackModel      string
	AIRateLimitPerMinute int

	PistonURL string

	StorageDriver                string // local, azure
	StorageDir                   string
	StoragePublicURL             string
	AzureStorageConnectionString string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "mentor"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 72),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		AIGatewayURL:         getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		AIGatewayAPIKey:      getEnv("AI_GATEWAY_API_KEY", ""),
		AIModel:              getEnv("AI_MODEL", "google/gemini-2.5-flash"),
		AIFeedbackModel:      getEnv("AI_FEEDBACK_MODEL", "google/gemini-2.5-flash-lite"),
		AIRateLimitPerMinute: getEnvInt("AI_RATE_LIMIT_PER_MINUTE", 20),

		PistonURL: strings.TrimRight(getEnv("PISTON_URL", "https://emkc.org/api/v2/piston"), "/"),

		StorageDriver:                getEnv("STORAGE_DRIVER", "local"),
		StorageDir:                   getEnv("STORAGE_DIR", "./uploads"),
		StoragePublicURL:             strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", "/storage"), "/"),
		AzureStorageConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
	}, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return n
}
