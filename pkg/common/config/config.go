package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaGroupID    string
	PipelineTopic   string
	KafkaBridgeMode bool

	// Reasoning service
	ReasoningAPIKey  string
	ReasoningBaseURL string
	ReasoningModel   string
	ReasoningTimeout time.Duration

	// Training backend
	TrainerBaseURL     string
	TrainerAPIKey      string
	TrainerPollEvery   time.Duration
	TrainerPollTimeout time.Duration

	// Model selection
	SelectionRulesPath string

	// Pipeline
	StateCacheTTL    time.Duration
	SubscriberBuffer int
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "modelpilot"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "modelpilot123"),
		PostgresDB:       getEnv("POSTGRES_DB", "modelpilot"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "modelpilot-platform"),
		PipelineTopic:   getEnv("PIPELINE_EVENTS_TOPIC", "pipeline-events"),
		KafkaBridgeMode: getBoolEnv("KAFKA_BRIDGE_MODE", false),

		ReasoningAPIKey:  getEnv("REASONING_API_KEY", ""),
		ReasoningBaseURL: getEnv("REASONING_BASE_URL", "https://api.openai.com/v1"),
		ReasoningModel:   getEnv("REASONING_MODEL_NAME", "gpt-4"),
		ReasoningTimeout: getDuration("REASONING_TIMEOUT", 60*time.Second),

		TrainerBaseURL:     getEnv("TRAINER_BASE_URL", "http://localhost:8090"),
		TrainerAPIKey:      getEnv("TRAINER_API_KEY", ""),
		TrainerPollEvery:   getDuration("TRAINER_POLL_INTERVAL", 60*time.Second),
		TrainerPollTimeout: getDuration("TRAINER_POLL_TIMEOUT", 24*time.Hour),

		SelectionRulesPath: getEnv("SELECTION_RULES_PATH", ""),

		StateCacheTTL:    getDuration("STATE_CACHE_TTL", 10*time.Minute),
		SubscriberBuffer: getIntEnv("SUBSCRIBER_BUFFER", 64),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
