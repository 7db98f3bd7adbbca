// Package config reads the service settings from the environment, after an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CameraSimulated   = "simulated"
	CameraUnavailable = "unavailable"
)

type Config struct {
	Port string

	DeepSeekAPIKey string
	DeepSeekAPIURL string
	DeepSeekModel  string

	// AdvisoryEndpoint is where the kiosk posts chat requests; by default its own relay.
	AdvisoryEndpoint string

	AllowedOrigins []string

	CameraMode  string
	CameraDelay time.Duration

	RabbitMQAddr  string
	RabbitMQQueue string

	TTSCommand string
}

// Load reads envFiles (or .env when none are given) into the process environment,
// then builds the Config. A missing .env is not an error; a named file that cannot be
// read is.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		DeepSeekAPIKey: os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekAPIURL: getenv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		DeepSeekModel:  getenv("DEEPSEEK_MODEL", "deepseek-chat"),
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		CameraMode:     getenv("CAMERA_MODE", CameraSimulated),
		RabbitMQAddr:   os.Getenv("RABBITMQ_ADDR"),
		RabbitMQQueue:  getenv("RABBITMQ_QUEUE", "checkup_results"),
		TTSCommand:     os.Getenv("TTS_COMMAND"),
	}
	cfg.AdvisoryEndpoint = getenv("ADVISORY_ENDPOINT", "http://127.0.0.1:"+cfg.Port+"/api/chat")

	switch cfg.CameraMode {
	case CameraSimulated, CameraUnavailable:
	default:
		return Config{}, fmt.Errorf("CAMERA_MODE %q: want %s or %s", cfg.CameraMode, CameraSimulated, CameraUnavailable)
	}

	if v := os.Getenv("CAMERA_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("CAMERA_DELAY_MS %q: want a non-negative integer", v)
		}
		cfg.CameraDelay = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
