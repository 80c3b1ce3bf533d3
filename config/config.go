package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server settings. Every game constant is overridable via
// environment variables; the defaults match the production deployment.
type Config struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	HTTPPort      string

	AdminKey  string
	JWTSecret string

	AnswersFile string
	WordsFile   string

	MaxPlayers     int
	MaxGuesses     int
	PastAnswersMax int

	DisconnectExpiry        time.Duration
	SessionExpiry           time.Duration
	DisconnectSweepInterval time.Duration
	ExpirySweepInterval     time.Duration

	RetryAttempts   int
	RetryBackoffMax time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "wordoffdb"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:      getEnv("PORT", "8080"),

		AdminKey:  getEnv("ADMIN_KEY", ""),
		JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-in-production"),

		AnswersFile: getEnv("ANSWERS_FILE", "words-answers.txt"),
		WordsFile:   getEnv("WORDS_FILE", "words-all.txt"),

		MaxPlayers:     getEnvInt("MAX_PLAYERS", 16),
		MaxGuesses:     getEnvInt("MAX_GUESSES", 6),
		PastAnswersMax: getEnvInt("PAST_ANSWERS_MAX", 500),

		DisconnectExpiry:        getEnvDuration("DISCONNECT_EXPIRY", 8*time.Second),
		SessionExpiry:           getEnvDuration("SESSION_EXPIRY", 120*time.Minute),
		DisconnectSweepInterval: getEnvDuration("DISCONNECT_SWEEP_INTERVAL", 5*time.Second),
		ExpirySweepInterval:     getEnvDuration("EXPIRY_SWEEP_INTERVAL", 5*time.Minute),

		RetryAttempts:   getEnvInt("RETRY_ATTEMPTS", 20),
		RetryBackoffMax: getEnvDuration("RETRY_BACKOFF_MAX", 150*time.Millisecond),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
