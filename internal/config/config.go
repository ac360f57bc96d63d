package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Chat       ChatConfig
	Auth       AuthConfig
	SMTP       SMTPConfig
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
	EventTopic         string
}

type StorageConfig struct {
	Endpoint  string
	ProjectId string
	BucketId  string
	APIKey    string
}

type ExtractionConfig struct {
	BaseURL string
}

type ChatConfig struct {
	BaseURL string
}

type AuthConfig struct {
	BaseURL string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
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
			EventTopic:         getEnv("SESSION_EVENT_TOPIC_NAME", "SESSION_EVENTS"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1"),
			ProjectId: getEnv("APPWRITE_PROJECT_ID", ""),
			BucketId:  getEnv("APPWRITE_BUCKET_ID", ""),
			APIKey:    getEnv("APPWRITE_API_KEY", ""),
		},
		Extraction: ExtractionConfig{
			BaseURL: getEnv("EXTRACTION_API_BASE_URL", "http://localhost:8000"),
		},
		Chat: ChatConfig{
			BaseURL: getEnv("CHAT_API_BASE_URL", "http://localhost:8000"),
		},
		Auth: AuthConfig{
			BaseURL: getEnv("AUTH_API_BASE_URL", "http://localhost:8000"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "NoteSnap"),
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
