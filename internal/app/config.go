package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Browser
	Browser        string
	Headless       bool
	UserDataDir    string
	DefaultTimeout time.Duration
	StartURL       string

	// LLM
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float32
	LLMMaxTokens   int

	// OCR fallback
	OCREnabled    bool
	OCRMode       string
	OCRScriptPath string
	OCRServiceURL string

	// Artifact directories
	LogsDir        string
	ScreenshotsDir string

	// Behavior
	Verbose      bool
	DebugVerbose bool
}
