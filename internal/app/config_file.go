package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
	Browser struct {
		Engine           string `yaml:"engine" json:"engine"`
		Headless         *bool  `yaml:"headless" json:"headless"`
		UserDataDir      string `yaml:"userDataDir" json:"userDataDir"`
		DefaultTimeoutMS int    `yaml:"defaultTimeoutMs" json:"defaultTimeoutMs"`
		StartURL         string `yaml:"startUrl" json:"startUrl"`
	} `yaml:"browser" json:"browser"`

	LLM struct {
		BaseURL     string   `yaml:"base" json:"base"`
		Model       string   `yaml:"model" json:"model"`
		APIKey      string   `yaml:"key" json:"key"`
		Temperature *float32 `yaml:"temperature" json:"temperature"`
		MaxTokens   int      `yaml:"maxTokens" json:"maxTokens"`
	} `yaml:"llm" json:"llm"`

	OCR struct {
		Enable     bool   `yaml:"enable" json:"enable"`
		Mode       string `yaml:"mode" json:"mode"`
		ScriptPath string `yaml:"scriptPath" json:"scriptPath"`
		ServiceURL string `yaml:"serviceUrl" json:"serviceUrl"`
	} `yaml:"ocr" json:"ocr"`

	Paths struct {
		Logs        string `yaml:"logs" json:"logs"`
		Screenshots string `yaml:"screenshots" json:"screenshots"`
	} `yaml:"paths" json:"paths"`

	Verbose      bool `yaml:"verbose" json:"verbose"`
	DebugVerbose bool `yaml:"debugVerbose" json:"debugVerbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// function lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Browser == "" && fc.Browser.Engine != "" {
		cfg.Browser = fc.Browser.Engine
	}
	if !cfg.Headless && fc.Browser.Headless != nil && *fc.Browser.Headless {
		cfg.Headless = true
	}
	if cfg.UserDataDir == "" && fc.Browser.UserDataDir != "" {
		cfg.UserDataDir = fc.Browser.UserDataDir
	}
	if cfg.DefaultTimeout == 0 && fc.Browser.DefaultTimeoutMS > 0 {
		cfg.DefaultTimeout = time.Duration(fc.Browser.DefaultTimeoutMS) * time.Millisecond
	}
	if cfg.StartURL == "" && fc.Browser.StartURL != "" {
		cfg.StartURL = fc.Browser.StartURL
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.LLMTemperature == 0 && fc.LLM.Temperature != nil {
		cfg.LLMTemperature = *fc.LLM.Temperature
	}
	if cfg.LLMMaxTokens == 0 && fc.LLM.MaxTokens > 0 {
		cfg.LLMMaxTokens = fc.LLM.MaxTokens
	}

	if !cfg.OCREnabled && fc.OCR.Enable {
		cfg.OCREnabled = true
	}
	if cfg.OCRMode == "" && fc.OCR.Mode != "" {
		cfg.OCRMode = fc.OCR.Mode
	}
	if cfg.OCRScriptPath == "" && fc.OCR.ScriptPath != "" {
		cfg.OCRScriptPath = fc.OCR.ScriptPath
	}
	if cfg.OCRServiceURL == "" && fc.OCR.ServiceURL != "" {
		cfg.OCRServiceURL = fc.OCR.ServiceURL
	}

	if cfg.LogsDir == "" && fc.Paths.Logs != "" {
		cfg.LogsDir = fc.Paths.Logs
	}
	if cfg.ScreenshotsDir == "" && fc.Paths.Screenshots != "" {
		cfg.ScreenshotsDir = fc.Paths.Screenshots
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.DebugVerbose && fc.DebugVerbose {
		cfg.DebugVerbose = true
	}
}

// ApplyDefaults fills any remaining zero fields with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Browser == "" {
		cfg.Browser = "chromium"
	}
	if cfg.UserDataDir == "" {
		cfg.UserDataDir = "./user_data"
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = 15 * time.Second
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "deepseek-chat"
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.2
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 1024
	}
	if cfg.OCRMode == "" {
		cfg.OCRMode = "swift_vision"
	}
	if cfg.OCRScriptPath == "" {
		cfg.OCRScriptPath = "./scripts/vision_cli.swift"
	}
	if cfg.OCRServiceURL == "" {
		cfg.OCRServiceURL = "http://localhost:9000/ocr"
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "./data/logs"
	}
	if cfg.ScreenshotsDir == "" {
		cfg.ScreenshotsDir = "./data/screenshots"
	}
}
