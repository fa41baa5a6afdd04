package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
}

type PaymentConfig struct {
	MidtransServerKey string
	MidtransIsProd    bool
}

type AIConfig struct {
	OllamaBaseURL    string
	ChatModel        string
	EmbeddingModel   string
	QueryModel       string
	TranslateFirst   bool
	TokenCeiling     int
	RecencyLimit     int
	SimilarityTopK   int
	SearchMaxResults int
	RequestTimeout   int // seconds, covers the full streamed reply
	BackfillTopic    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Chat"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransIsProd:    getEnvAsBool("MIDTRANS_IS_PROD", false),
		},
		Ai: AIConfig{
			OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			ChatModel:        getEnv("CHAT_MODEL", "qwen2.5"),
			EmbeddingModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			QueryModel:       getEnv("SEARCH_QUERY_MODEL", ""),
			TranslateFirst:   getEnvAsBool("TRANSLATE_BEFORE_EMBEDDING", true),
			TokenCeiling:     getEnvAsInt("CONTEXT_TOKEN_CEILING", 32000),
			RecencyLimit:     getEnvAsInt("CONTEXT_RECENCY_LIMIT", 50),
			SimilarityTopK:   getEnvAsInt("CONTEXT_SIMILARITY_TOP_K", 10),
			SearchMaxResults: getEnvAsInt("SEARCH_MAX_RESULTS", 3),
			RequestTimeout:   getEnvAsInt("OLLAMA_TIMEOUT_SECONDS", 500),
			BackfillTopic:    getEnv("EMBED_TURN_TOPIC_NAME", "EMBED_CHAT_TURN"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
