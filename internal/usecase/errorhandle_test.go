package usecase

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"conductor-ai/internal/domain"
)

func TestHandleError_TaggedErrorEnvelope(t *testing.T) {
	res := HandleError(slog.Default(), domain.NewRateLimitError("throttled", "openai", 30*time.Second), "fallback generation")

	if res.Status != domain.StatusError {
		t.Errorf("Status = %q", res.Status)
	}
	if res.ErrorInfo["success"] != false {
		t.Errorf("success = %v", res.ErrorInfo["success"])
	}
	if res.ErrorInfo["error_code"] != "API_RATE_LIMIT" {
		t.Errorf("error_code = %v", res.ErrorInfo["error_code"])
	}
	if res.ErrorInfo["severity"] != "MEDIUM" {
		t.Errorf("severity = %v", res.ErrorInfo["severity"])
	}
	if res.ErrorInfo["context"] != "fallback generation" {
		t.Errorf("context = %v", res.ErrorInfo["context"])
	}
	if res.ErrorInfo["retry_after"] != int64(30) {
		t.Errorf("retry_after = %v", res.ErrorInfo["retry_after"])
	}
	if res.Result["error"] == nil {
		t.Error("Result[error] missing")
	}
}

func TestHandleError_PlainErrorDefaultsToAgentError(t *testing.T) {
	res := HandleError(slog.Default(), errors.New("boom"), "test")
	if res.ErrorInfo["error_code"] != "AGENT_ERROR" {
		t.Errorf("error_code = %v", res.ErrorInfo["error_code"])
	}
	if res.ErrorInfo["severity"] != "MEDIUM" {
		t.Errorf("severity = %v", res.ErrorInfo["severity"])
	}
}

func TestHandleError_SeverityDrivesLogLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	HandleError(log, domain.NewConfigurationError("no key", "llm.api_key"), "setup")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("high severity not logged at error: %s", buf.String())
	}

	buf.Reset()
	HandleError(log, domain.NewNetworkError("flaky", nil), "fetch")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("medium severity not logged at warn: %s", buf.String())
	}
}

func TestHandleError_NilError(t *testing.T) {
	res := HandleError(slog.Default(), nil, "noop")
	if res.Status != domain.StatusAcknowledged {
		t.Errorf("Status = %q", res.Status)
	}
}
