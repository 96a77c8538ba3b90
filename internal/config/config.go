package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string `env:"API_PORT" env-default:"9000"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	DBDriver string `env:"DB_DRIVER" env-default:"sqlite3"`
	DBDSN    string `env:"DB_DSN" env-default:"./data/meetings.db"`

	OllamaURL          string        `env:"OLLAMA_URL" env-default:"http://localhost:11434"`
	OllamaGenModel     string        `env:"OLLAMA_GEN_MODEL" env-default:"llama3.1:8b"`
	OllamaTimeout      time.Duration `env:"OLLAMA_TIMEOUT" env-default:"120s"`
	OllamaProbeTimeout time.Duration `env:"OLLAMA_PROBE_TIMEOUT" env-default:"5s"`
	OllamaTemperature  float64       `env:"OLLAMA_TEMPERATURE" env-default:"0.7"`
	OllamaTopP         float64       `env:"OLLAMA_TOP_P" env-default:"0.9"`
	OllamaTopK         int           `env:"OLLAMA_TOP_K" env-default:"40"`

	LLMRetryMaxAttempts    int           `env:"LLM_RETRY_MAX_ATTEMPTS" env-default:"1"`
	LLMRetryInitialBackoff time.Duration `env:"LLM_RETRY_INITIAL_BACKOFF" env-default:"200ms"`
	LLMRetryMaxBackoff     time.Duration `env:"LLM_RETRY_MAX_BACKOFF" env-default:"1s"`
	LLMBreakerEnabled      bool          `env:"LLM_BREAKER_ENABLED" env-default:"true"`
	LLMBreakerMinRequests  uint32        `env:"LLM_BREAKER_MIN_REQUESTS" env-default:"5"`
	LLMBreakerFailureRatio float64       `env:"LLM_BREAKER_FAILURE_RATIO" env-default:"0.6"`
	LLMBreakerOpenTimeout  time.Duration `env:"LLM_BREAKER_OPEN_TIMEOUT" env-default:"30s"`

	WhisperBackend   string `env:"WHISPER_BACKEND" env-default:"openai"`
	WhisperURL       string `env:"WHISPER_URL" env-default:"http://localhost:8000/v1"`
	WhisperAPIKey    string `env:"WHISPER_API_KEY"`
	WhisperModel     string `env:"WHISPER_MODEL" env-default:"whisper-1"`
	WhisperLanguage  string `env:"WHISPER_LANGUAGE"`
	// WhisperProbe gates the startup request to the transcription server.
	// With it off nothing is checked, so /health reports whisper_loaded as
	// soon as the client is built, even if the server is down.
	WhisperProbe     bool   `env:"WHISPER_PROBE" env-default:"true"`
	WhisperBinary    string `env:"WHISPER_BINARY" env-default:"whisper-cli"`
	WhisperModelPath string `env:"WHISPER_MODEL_PATH" env-default:"./models/ggml-base.bin"`
	WhisperRequired  bool   `env:"WHISPER_REQUIRED" env-default:"true"`

	FFmpegBinary string `env:"FFMPEG_BINARY" env-default:"ffmpeg"`

	UploadDir              string `env:"UPLOAD_DIR" env-default:"./data/uploads"`
	AudioDir               string `env:"AUDIO_DIR" env-default:"./data/audio_files"`
	ArtifactDir            string `env:"ARTIFACT_DIR" env-default:"./data/outputs"`
	LegacyArtifactsEnabled bool   `env:"LEGACY_ARTIFACTS_ENABLED" env-default:"true"`

	PromptSet   string `env:"PROMPT_SET" env-default:"standard"`
	PromptsFile string `env:"PROMPTS_FILE"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" env-default:"meetings.processed"`

	APIRateLimitRPS          float64       `env:"API_RATE_LIMIT_RPS" env-default:"0"`
	APIRateLimitBurst        int           `env:"API_RATE_LIMIT_BURST" env-default:"20"`
	ProcessMaxConcurrentJobs int           `env:"PROCESS_MAX_CONCURRENT_JOBS" env-default:"0"`
	ProcessQueueWait         time.Duration `env:"PROCESS_QUEUE_WAIT" env-default:"250ms"`
	CORSAllowedOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxUploadMB              int64         `env:"MAX_UPLOAD_MB" env-default:"500"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver)
	}
	switch strings.ToLower(c.WhisperBackend) {
	case "openai", "command":
	default:
		return fmt.Errorf("WHISPER_BACKEND must be openai or command, got %q", c.WhisperBackend)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
