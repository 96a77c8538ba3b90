package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/resilience"
)

type Options struct {
	BaseURL      string
	Model        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Temperature  float64
	TopP         float64
	TopK         int

	// OnCall is invoked after every generate request.
	OnCall func(model string, duration time.Duration, err error)
}

// Client talks to a local Ollama server.
type Client struct {
	baseURL     string
	model       string
	options     generateOptions
	httpClient  *http.Client
	probeClient *http.Client
	exec        *resilience.Executor
	onCall      func(string, time.Duration, error)
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

func New(opts Options, exec *resilience.Executor) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.Config{})
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   opts.Model,
		options: generateOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			TopK:        opts.TopK,
		},
		httpClient:  &http.Client{Timeout: opts.Timeout},
		probeClient: &http.Client{Timeout: opts.ProbeTimeout},
		exec:        exec,
		onCall:      opts.OnCall,
	}
}

// Complete runs one non-streaming generation. An empty model selects the
// configured default.
func (c *Client) Complete(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.model
	}
	reqBody := map[string]any{
		"model":   model,
		"prompt":  prompt,
		"stream":  false,
		"options": c.options,
	}

	started := time.Now()
	var response struct {
		Response string `json:"response"`
	}
	err := c.exec.Execute(ctx, "ollama.generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, "generate")
	}, classifyOllamaError)
	if c.onCall != nil {
		c.onCall(model, time.Since(started), err)
	}
	if err != nil {
		return "", mapOllamaError("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

// Ping lists local models as a liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	var response struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &response, "tags"); err != nil {
		return mapOllamaError("ollama ping", err)
	}
	return nil
}
