package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI-compatible chat/completions client. Qwen and
// DeepSeek deployments expose the same surface, so one client covers all.
type Config struct {
	APIKey      string        // if empty, falls back to env LLM_API_KEY
	BaseURL     string        // e.g. http://localhost:8000/v1
	Model       string        // e.g. "Deepseek-V3", "qwen3:235b"
	Temperature float32       // 0..2
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration // per-call timeout
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "Deepseek-V3"
	}
	if cfg.MaxTokens < 512 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		// No client-level timeout: the per-call context deadline governs,
		// and a shorter transport timeout would misclassify it.
		http: &http.Client{},
		log:  logger,
	}
}

// Timeout returns the configured per-call timeout.
func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// Model returns the configured model name for reporting.
func (c *Client) Model() string { return c.cfg.Model }
