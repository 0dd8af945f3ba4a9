package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
browser:
  engine: firefox
  headless: true
  userDataDir: ./profiles
  defaultTimeoutMs: 20000
  startUrl: https://example.com/quiz
llm:
  base: https://api.deepseek.com/v1
  model: deepseek-chat
  temperature: 0.3
ocr:
  enable: true
  mode: service
  serviceUrl: http://localhost:9000/ocr
paths:
  logs: ./out/logs
  screenshots: ./out/shots
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	var cfg Config
	ApplyFileConfig(&cfg, fc)

	if cfg.Browser != "firefox" || !cfg.Headless {
		t.Fatalf("browser section not applied: %+v", cfg)
	}
	if cfg.DefaultTimeout != 20*time.Second {
		t.Fatalf("timeout = %v, want 20s", cfg.DefaultTimeout)
	}
	if cfg.LLMModel != "deepseek-chat" || cfg.LLMTemperature != 0.3 {
		t.Fatalf("llm section not applied: %+v", cfg)
	}
	if !cfg.OCREnabled || cfg.OCRMode != "service" {
		t.Fatalf("ocr section not applied: %+v", cfg)
	}
	if cfg.LogsDir != "./out/logs" || cfg.ScreenshotsDir != "./out/shots" {
		t.Fatalf("paths section not applied: %+v", cfg)
	}
}

func TestApplyFileConfigKeepsExplicitValues(t *testing.T) {
	var fc FileConfig
	fc.Browser.Engine = "webkit"
	fc.LLM.Model = "other-model"

	cfg := Config{Browser: "chromium", LLMModel: "deepseek-chat"}
	ApplyFileConfig(&cfg, fc)

	if cfg.Browser != "chromium" {
		t.Fatalf("flag value overridden: %q", cfg.Browser)
	}
	if cfg.LLMModel != "deepseek-chat" {
		t.Fatalf("flag value overridden: %q", cfg.LLMModel)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Browser != "chromium" {
		t.Fatalf("browser default = %q", cfg.Browser)
	}
	if cfg.DefaultTimeout != 15*time.Second {
		t.Fatalf("timeout default = %v", cfg.DefaultTimeout)
	}
	if cfg.LLMModel != "deepseek-chat" || cfg.LLMMaxTokens != 1024 {
		t.Fatalf("llm defaults missing: %+v", cfg)
	}
	if cfg.OCRMode != "swift_vision" {
		t.Fatalf("ocr default = %q", cfg.OCRMode)
	}
}

func TestApplyEnvToConfig(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("START_URL", "https://example.com")

	var cfg Config
	ApplyEnvToConfig(&cfg)

	if cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("api key = %q", cfg.LLMAPIKey)
	}
	if cfg.StartURL != "https://example.com" {
		t.Fatalf("start url = %q", cfg.StartURL)
	}
}
