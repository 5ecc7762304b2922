// Package llm provides an OpenAI-compatible chat completion client
// used for fallback response synthesis.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/infra/tracer"
)

// maxResponseBody caps how much of an API response body we read.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// Config holds everything needed to reach one chat completion API.
type Config struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// RequestsPerSecond throttles outbound calls. Zero disables the
	// limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig sizes the HTTP connection pool.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		cfg:     cfg,
		client:  newHTTPClient(cfg),
		limiter: limiter,
		logger:  logger,
	}
}

// Complete sends one system/user prompt pair and returns the first
// choice's text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(tracer.StringAttr("llm.model", c.model)),
	)
	defer span.End()

	if c.apiKey == "" {
		err := domain.NewConfigurationError("llm api key is not set", "llm.api_key")
		tracer.RecordError(span, err)
		return "", err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req := chatRequest{
		Model:     c.model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if c.cfg.Temperature > 0 {
		req.Temperature = &c.cfg.Temperature
	}
	body, err := json.Marshal(req)
	if err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.doJSONRequest(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := domain.NewAPIError("chat completion returned no choices", "chat_completions", http.StatusOK)
		tracer.RecordError(span, err)
		return "", err
	}

	span.SetAttributes(
		tracer.IntAttr("llm.prompt_tokens", resp.Usage.PromptTokens),
		tracer.IntAttr("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	tracer.SetOK(span)
	c.logger.Debug("llm completion finished",
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

// doJSONRequest performs a JSON POST and returns the body, mapping
// transport and status failures into the error taxonomy.
func (c *Client) doJSONRequest(ctx context.Context, url string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewNetworkError("chat completion request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, domain.NewNetworkError("read chat completion response", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(httpResp.StatusCode, httpResp.Header, respBody)
	}
	return respBody, nil
}

// mapHTTPError classifies a non-200 response into the error taxonomy
// so the retry helper and circuit breaker treat it correctly.
func mapHTTPError(statusCode int, header http.Header, body []byte) error {
	detail := fmt.Sprintf("API error %d: %s", statusCode, string(body))

	switch {
	case statusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(header.Get("Retry-After"))
		return domain.NewRateLimitError(detail, "chat_completions", retryAfter)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.NewConfigurationError(detail, "llm.api_key")
	case statusCode >= 500:
		return domain.NewAPIError(detail, "chat_completions", statusCode)
	default:
		err := domain.NewAPIError(detail, "chat_completions", statusCode)
		// 4xx other than auth and throttling is a caller bug, not a
		// transient fault.
		err.Severity = domain.SeverityHigh
		return err
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Connection pool defaults tuned for few hosts and long-lived calls.
const (
	defaultConnTimeout = 30 * time.Second
	defaultRespTimeout = 120 * time.Second

	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 20
	defaultIdleConnTimeout     = 120 * time.Second
)

func newHTTPClient(cfg Config) *http.Client {
	connTimeout := cfg.ConnTimeout
	if connTimeout == 0 {
		connTimeout = defaultConnTimeout
	}
	respTimeout := cfg.RespTimeout
	if respTimeout == 0 {
		respTimeout = defaultRespTimeout
	}
	return &http.Client{
		Transport: newPooledTransport(connTimeout, respTimeout, cfg.Pool),
		Timeout:   connTimeout + respTimeout,
	}
}

func newPooledTransport(connTimeout, respTimeout time.Duration, pool PoolConfig) *http.Transport {
	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxIdlePerHost := pool.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = defaultMaxIdleConnsPerHost
	}
	maxConnsPerHost := pool.MaxConnsPerHost
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = defaultMaxConnsPerHost
	}
	idleTimeout := pool.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleConnTimeout
	}

	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: respTimeout,
		MaxIdleConns:          maxIdle,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       idleTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// --- chat completions wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
