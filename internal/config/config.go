package config

import (
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string // ENV: production, development, etc.
	LogLevel    string

	MongoURI    string
	MongoDBName string
	RedisURI    string // optional; rate limiting is skipped when empty

	N8NToken       string   // shared secret the workflow must send in X-N8N-Token
	AllowedOrigins []string // CORS: browser-hosted n8n editors issue test calls cross-origin

	YandexGeocoderAPIKey string

	AstrologyAPIUserID   string
	AstrologyAPIKey      string
	AstrologyAPILanguage string

	TelegramBotToken string
	TelegramChatID   string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI:    getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/newbotksenia")),
		MongoDBName: getEnv("MONGO_DB_NAME", "newbotksenia"),
		RedisURI:    getEnv("REDIS_URI", ""),

		N8NToken:       getEnv("N8N_TOKEN", ""),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),

		YandexGeocoderAPIKey: getEnv("YANDEX_GEOCODER_API_KEY", ""),

		AstrologyAPIUserID:   getEnv("ASTROLOGY_API_USER_ID", ""),
		AstrologyAPIKey:      getEnv("ASTROLOGY_API_KEY", ""),
		AstrologyAPILanguage: getEnv("ASTROLOGY_API_LANGUAGE", "russian"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
