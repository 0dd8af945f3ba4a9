package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quizpilot/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional; real env always wins.
	_ = godotenv.Load()

	var (
		configPath  string
		browserName string
		headless    bool
		userDataDir string
		timeout     time.Duration
		startURL    string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		ocrEnable   bool
		logsDir     string
		shotsDir    string
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to YAML/JSON configuration file")
	flag.StringVar(&browserName, "browser", "", "Browser engine: chromium, firefox or webkit")
	flag.BoolVar(&headless, "headless", false, "Run the browser without a window")
	flag.StringVar(&userDataDir, "user-data-dir", "", "Persistent browser profile directory")
	flag.DurationVar(&timeout, "timeout", 0, "Default timeout for browser operations")
	flag.StringVar(&startURL, "start-url", os.Getenv("START_URL"), "URL to open after launch")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the model server")
	flag.BoolVar(&ocrEnable, "ocr", false, "Enable the OCR stem fallback")
	flag.StringVar(&logsDir, "logs", "", "Directory for page dumps and logs")
	flag.StringVar(&shotsDir, "screenshots", "", "Directory for screenshots")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		Browser:        browserName,
		Headless:       headless,
		UserDataDir:    userDataDir,
		DefaultTimeout: timeout,
		StartURL:       startURL,
		LLMBaseURL:     llmBaseURL,
		LLMModel:       llmModel,
		LLMAPIKey:      llmKey,
		OCREnabled:     ocrEnable,
		LogsDir:        logsDir,
		ScreenshotsDir: shotsDir,
		Verbose:        verbose,
	}

	if fc, err := app.LoadConfigFile(configPath); err == nil {
		app.ApplyFileConfig(&cfg, fc)
	} else if !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", configPath).Msg("config file ignored")
	}
	app.ApplyEnvToConfig(&cfg)
	app.ApplyDefaults(&cfg)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log.Logger)
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
