package usecase

import (
	"log/slog"
	"time"

	"conductor-ai/internal/domain"
)

// HandleError converts a failure at an agent boundary into a tagged
// error result, logging at a level derived from the error's severity.
func HandleError(logger *slog.Logger, err error, context string) domain.TaskResult {
	if logger == nil {
		logger = slog.Default()
	}
	if err == nil {
		return domain.TaskResult{Status: domain.StatusAcknowledged}
	}

	info := map[string]any{
		"success": false,
		"context": context,
		"message": err.Error(),
	}

	if ae, ok := domain.AsAgentError(err); ok {
		info["error_type"] = ae.Kind.String()
		info["error_code"] = ae.Kind.String()
		info["severity"] = ae.Severity.String()
		if d := ae.Wire()["details"]; d != nil {
			info["details"] = d
		}
		if ae.RetryAfter > 0 {
			info["retry_after"] = int64(ae.RetryAfter / time.Second)
		}
		logAt(logger, ae.Severity, "agent error", "context", context, "error_code", ae.Kind.String(), "severity", ae.Severity.String(), "error", err)
	} else {
		info["error_type"] = "AGENT_ERROR"
		info["error_code"] = "AGENT_ERROR"
		info["severity"] = domain.SeverityMedium.String()
		logger.Error("unexpected error", "context", context, "error", err)
	}

	return domain.TaskResult{
		Status:    domain.StatusError,
		ErrorInfo: info,
		Result:    map[string]any{"error": err.Error()},
	}
}

func logAt(logger *slog.Logger, sev domain.Severity, msg string, args ...any) {
	switch sev {
	case domain.SeverityCritical, domain.SeverityHigh:
		logger.Error(msg, args...)
	case domain.SeverityMedium:
		logger.Warn(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}
