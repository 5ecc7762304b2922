package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"conductor-ai/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker around a completer.
type BreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the circuit.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the closed-state cycle for clearing failure counts.
	Interval time.Duration `yaml:"interval"`
}

// Completer matches the coordinator's completion dependency.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// BreakerCompleter wraps a Completer so repeated failures fail fast
// instead of feeding retry storms. Configuration errors do not count
// as failures: a missing API key is permanent, not a service outage.
type BreakerCompleter struct {
	inner   Completer
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

func NewBreakerCompleter(inner Completer, cfg BreakerConfig, logger *slog.Logger) *BreakerCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:completions",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			ae, ok := domain.AsAgentError(err)
			return ok && ae.Kind == domain.KindConfiguration
		},
	})

	return &BreakerCompleter{inner: inner, breaker: cb, logger: logger}
}

// Complete routes the call through the circuit breaker. An open
// circuit surfaces as an API error so callers treat it like any other
// upstream outage.
func (b *BreakerCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := b.breaker.Execute(func() (string, error) {
		return b.inner.Complete(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", domain.NewAPIError("completion circuit open: "+err.Error(), "chat_completions", http.StatusServiceUnavailable)
		}
		return "", err
	}
	return out, nil
}

// State exposes the breaker state for monitoring.
func (b *BreakerCompleter) State() gobreaker.State { return b.breaker.State() }

var _ Completer = (*BreakerCompleter)(nil)
