package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Storage   StorageConfig
	ChatStore ChatStoreConfig
	Workflow  WorkflowConfig
	Events    EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type AIConfig struct {
	LLMProvider    string // "gateway", "openai" or "ollama"
	LLMModel       string
	GatewayBaseURL string
	GatewayAPIKey  string
	Temperature    float64
	MaxTokens      int
	// StreamChunkSize is the read buffer used when decoding reply streams.
	StreamChunkSize int
}

type StorageConfig struct {
	Driver       string // "local" or "minio"
	Bucket       string
	LocalRoot    string
	PublicPrefix string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	URLExpiry    time.Duration
}

type ChatStoreConfig struct {
	Driver string // "memory", "redis" or "database"
}

type WorkflowConfig struct {
	// AtomicChains writes a parent and its mandatory child in one transaction.
	AtomicChains bool
	// AutoRepair creates missing mandatory children when they are reported.
	AutoRepair bool
}

type EventsConfig struct {
	Driver string // "memory" or "nats"
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:     getEnv("LLM_PROVIDER", "gateway"),
			LLMModel:        getEnv("LLM_MODEL", "google/gemini-2.5-flash"),
			GatewayBaseURL:  getEnv("AI_GATEWAY_URL", ""),
			GatewayAPIKey:   getEnv("AI_GATEWAY_API_KEY", ""),
			Temperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 0),
			StreamChunkSize: getEnvAsInt("LLM_STREAM_CHUNK_SIZE", 4096),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "local"),
			Bucket:       getEnv("STORAGE_BUCKET", "capa-attachments"),
			LocalRoot:    getEnv("STORAGE_LOCAL_ROOT", "uploads"),
			PublicPrefix: getEnv("STORAGE_PUBLIC_PREFIX", "/files"),
			Endpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:    getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
			URLExpiry:    getEnvAsDuration("STORAGE_URL_EXPIRY", 15*time.Minute),
		},
		ChatStore: ChatStoreConfig{
			Driver: getEnv("CHAT_STORE_DRIVER", "memory"),
		},
		Workflow: WorkflowConfig{
			AtomicChains: getEnvAsBool("WORKFLOW_ATOMIC_CHAINS", true),
			AutoRepair:   getEnvAsBool("WORKFLOW_AUTO_REPAIR", false),
		},
		Events: EventsConfig{
			Driver: getEnv("EVENTS_DRIVER", "memory"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
