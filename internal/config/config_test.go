package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{
	"PORT", "DEEPSEEK_API_KEY", "DEEPSEEK_API_URL", "DEEPSEEK_MODEL", "ADVISORY_ENDPOINT",
	"CORS_ALLOWED_ORIGINS", "CAMERA_MODE", "CAMERA_DELAY_MS", "RABBITMQ_ADDR", "RABBITMQ_QUEUE",
	"TTS_COMMAND",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.AdvisoryEndpoint != "http://127.0.0.1:8080/api/chat" {
		t.Errorf("AdvisoryEndpoint = %q", cfg.AdvisoryEndpoint)
	}
	if cfg.DeepSeekModel != "deepseek-chat" {
		t.Errorf("DeepSeekModel = %q", cfg.DeepSeekModel)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.CameraMode != CameraSimulated || cfg.CameraDelay != 0 {
		t.Errorf("camera = %s/%v", cfg.CameraMode, cfg.CameraDelay)
	}
	if cfg.RabbitMQAddr != "" || cfg.RabbitMQQueue != "checkup_results" {
		t.Errorf("rabbitmq = %q/%q", cfg.RabbitMQAddr, cfg.RabbitMQQueue)
	}
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CAMERA_MODE", "unavailable")
	t.Setenv("CAMERA_DELAY_MS", "250")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AdvisoryEndpoint != "http://127.0.0.1:9000/api/chat" {
		t.Errorf("AdvisoryEndpoint = %q", cfg.AdvisoryEndpoint)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.CameraMode != CameraUnavailable || cfg.CameraDelay != 250*time.Millisecond {
		t.Errorf("camera = %s/%v", cfg.CameraMode, cfg.CameraDelay)
	}
	if cfg.DeepSeekAPIKey != "sk-test" {
		t.Errorf("DeepSeekAPIKey = %q", cfg.DeepSeekAPIKey)
	}
}

func TestInvalidValues(t *testing.T) {
	for _, tc := range []struct{ key, value string }{
		{"CAMERA_MODE", "webcam"},
		{"CAMERA_DELAY_MS", "soon"},
		{"CAMERA_DELAY_MS", "-5"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "kiosk.env")
	if err := os.WriteFile(path, []byte("TTS_COMMAND=say\nRABBITMQ_QUEUE=results\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, so drop the empty ones.
	os.Unsetenv("TTS_COMMAND")
	os.Unsetenv("RABBITMQ_QUEUE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TTSCommand != "say" || cfg.RabbitMQQueue != "results" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected an error for a missing env file")
	}
}
