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
	CRM      CRMConfig
	Policy   PolicyConfig
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host          string
	Port          int
	Email         string
	Password      string
	SenderName    string
	OperatorEmail string // escalation alerts go here
}

type CRMConfig struct {
	BaseURL string
	APIKey  string
}

type PolicyConfig struct {
	Endpoint string
	AgencyNo string
	Username string
	Password string
}

type AIConfig struct {
	LLMProvider    string // "openai" or "ollama"
	LLMModel       string
	EvaluatorModel string // model for escalation checks, defaults to LLMModel
	OpenAIAPIKey   string
	OllamaBaseURL  string
	MaxToolTurns   int
}

type ChatConfig struct {
	TranscriptTopic string
	SessionTTLMin   int // redis session store TTL, minutes
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "Insurance Intake"),
			OperatorEmail: getEnv("OPERATOR_ALERT_EMAIL", ""),
		},
		CRM: CRMConfig{
			BaseURL: getEnv("CRM_BASE_URL", ""),
			APIKey:  getEnv("CRM_API_KEY", ""),
		},
		Policy: PolicyConfig{
			Endpoint: getEnv("POLICY_SOAP_ENDPOINT", ""),
			AgencyNo: getEnv("POLICY_AGENCY_NO", ""),
			Username: getEnv("POLICY_USERNAME", ""),
			Password: getEnv("POLICY_PASSWORD", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
			LLMModel:       getEnv("LLM_MODEL", "gpt-4o"),
			EvaluatorModel: getEnv("ESCALATION_EVALUATOR_MODEL", ""),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			MaxToolTurns:   getEnvAsInt("MAX_TOOL_TURNS", 8),
		},
		Chat: ChatConfig{
			TranscriptTopic: getEnv("TRANSCRIPT_TOPIC_NAME", "SAVE_TRANSCRIPT"),
			SessionTTLMin:   getEnvAsInt("SESSION_TTL_MINUTES", 720),
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
