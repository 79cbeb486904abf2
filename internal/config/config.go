package config

import (
	"log"
	"os"
	"strconv"
	"time"

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

	WompiBaseURL      string
	WompiPublicKey    string
	WompiPrivateKey   string
	WompiEventsSecret string
	GatewayTimeout    time.Duration

	PollMaxAttempts int
	PollDelay       time.Duration

	AMQPURL string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		WompiBaseURL:      getEnv("WOMPI_BASE_URL", "https://sandbox.wompi.co/v1"),
		WompiPublicKey:    os.Getenv("WOMPI_PUBLIC_KEY"),
		WompiPrivateKey:   os.Getenv("WOMPI_PRIVATE_KEY"),
		WompiEventsSecret: os.Getenv("WOMPI_EVENTS_SECRET"),
		GatewayTimeout:    getEnvDuration("GATEWAY_TIMEOUT", 15*time.Second),

		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 5),
		PollDelay:       getEnvDuration("POLL_DELAY", 3*time.Second),

		AMQPURL: os.Getenv("AMQP_URL"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
