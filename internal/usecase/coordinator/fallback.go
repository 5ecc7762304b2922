package coordinator

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/infra/tracer"
)

const fallbackSystemPrompt = "You are a helpful assistant. The task pipeline " +
	"produced no usable results. Write a short, direct answer to the user's " +
	"original request using only general knowledge."

// generateFallback produces a user-facing message when subtask results
// are missing or failed. It never returns an empty string and never
// panics, whatever the completer does.
func (c *Coordinator) generateFallback(ctx context.Context, originalRequest string) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger().Error("fallback generation panicked", "panic", r)
			msg = "I was unable to complete your request. Please try again later."
		}
	}()

	if strings.TrimSpace(originalRequest) == "" {
		return "I was unable to complete your request. Please try again with more detail."
	}

	if c.completer == nil {
		return configNeededMessage(originalRequest)
	}

	out, err := c.completer.Complete(ctx, fallbackSystemPrompt, originalRequest)
	if err != nil {
		tracer.RecordError(trace.SpanFromContext(ctx), err)
		if ae, ok := domain.AsAgentError(err); ok && ae.Kind == domain.KindConfiguration {
			c.Logger().Warn("fallback completer unconfigured", "error", err)
			return configNeededMessage(originalRequest)
		}
		c.Logger().Error("fallback generation failed", "error", err)
		return "I was unable to complete your request: the language model is currently unavailable."
	}
	if strings.TrimSpace(out) == "" {
		return "I was unable to complete your request. Please try again later."
	}
	return out
}

func configNeededMessage(originalRequest string) string {
	return "I received your request about \"" + truncateRunes(originalRequest, 50) +
		"\" but a language model is not configured, so I cannot generate a full answer."
}

// truncateRunes shortens by rune count so multibyte text is never cut
// mid-character.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
