package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	HRAPIURL    string
	ModelAPIURL string

	CacheTTL time.Duration

	OpenAIKey   string
	OpenAIModel string

	SimStepDelay time.Duration

	LogLevel string

	// GraphStrict makes the graph builder reject relationships whose
	// endpoints cannot be resolved instead of skipping them.
	GraphStrict bool
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:   os.Getenv("SERVER_PORT"),
		HRAPIURL:     os.Getenv("HR_API_URL"),
		ModelAPIURL:  os.Getenv("MODEL_API_URL"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		CacheTTL:     durationEnv("CACHE_TTL_SECONDS", 300) * time.Second,
		SimStepDelay: durationEnv("SIM_STEP_DELAY_MS", 1000) * time.Millisecond,
		GraphStrict:  boolEnv("GRAPH_STRICT"),
	}

	if cfg.HRAPIURL == "" {
		log.Fatal("HR_API_URL is not set")
	}
	if cfg.ModelAPIURL == "" {
		log.Fatal("MODEL_API_URL is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}

func durationEnv(key string, def int64) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		log.Fatalf("%s must be a non-negative integer, got %q", key, raw)
	}
	return time.Duration(n)
}

func boolEnv(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
