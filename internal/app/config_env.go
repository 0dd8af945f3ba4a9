package app

import "os"

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		// DEEPSEEK_API_KEY is what the upstream provider documents; keep the
		// generic name as the preferred spelling.
		v := os.Getenv("LLM_API_KEY")
		if v == "" {
			v = os.Getenv("DEEPSEEK_API_KEY")
		}
		cfg.LLMAPIKey = v
	}

	if cfg.StartURL == "" {
		cfg.StartURL = os.Getenv("START_URL")
	}
	if cfg.UserDataDir == "" {
		cfg.UserDataDir = os.Getenv("USER_DATA_DIR")
	}
	if cfg.OCRServiceURL == "" {
		cfg.OCRServiceURL = os.Getenv("OCR_SERVICE_URL")
	}
}
