package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// Optional collaborators. Empty values disable them.
	RedisAddr       string
	KafkaBrokers    []string
	KafkaOrderTopic string
	RendererURL     string

	// InventoryMissingPolicy is "fail" (default) or "skip".
	InventoryMissingPolicy string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:                 os.Getenv("DB_HOST"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPassword:             os.Getenv("DB_PASSWORD"),
		DBName:                 os.Getenv("DB_NAME"),
		DBPort:                 os.Getenv("DB_PORT"),
		AppPort:                getenv("APP_PORT", "8080"),
		AppEnv:                 os.Getenv("APP_ENV"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		KafkaBrokers:           splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:        getenv("KAFKA_ORDER_TOPIC", "warehouse.orders"),
		RendererURL:            os.Getenv("RENDERER_URL"),
		InventoryMissingPolicy: getenv("INVENTORY_MISSING_POLICY", "fail"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
