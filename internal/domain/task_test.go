package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskResultWire(t *testing.T) {
	r := TaskResult{
		Status:    StatusResultsCollected,
		TaskID:    "t1",
		AgentID:   "coord",
		Results:   map[string]any{"t1_a": map[string]any{"output": "x"}},
		Subtasks:  []Subtask{{SubtaskID: "t1_a", Type: "research", Content: "c", Priority: "high"}},
		ErrorInfo: nil,
	}

	wire := r.Wire()
	require.Equal(t, "results_collected", wire["status"])
	require.Equal(t, "t1", wire["task_id"])

	subs, ok := wire["subtasks"].([]any)
	require.True(t, ok)
	require.Len(t, subs, 1)
	sub := subs[0].(map[string]any)
	assert.Equal(t, "t1_a", sub["subtask_id"])
	assert.Equal(t, "research", sub["type"])

	// Empty optional fields stay off the wire.
	assert.NotContains(t, wire, "fallback_message")
	assert.NotContains(t, wire, "error_info")
	assert.NotContains(t, wire, "subtask_id")
}

func TestTaskResultWire_NestedResults(t *testing.T) {
	r := TaskResult{
		Status: StatusError,
		ErrorInfo: map[string]any{
			"error_code": "NETWORK_ERROR",
			"details":    map[string]any{"api_name": "search"},
		},
		Result: map[string]any{"error": "dial failed"},
	}
	wire := r.Wire()

	info, ok := wire["error_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NETWORK_ERROR", info["error_code"])
	res, ok := wire["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dial failed", res["error"])
}

func TestNewIDPrefixes(t *testing.T) {
	id := NewID("task")
	short := NewShortID("workflow")

	assert.Regexp(t, `^task_[0-9A-Z]{26}$`, id)
	assert.Regexp(t, `^workflow_[0-9a-z]{8}$`, short)
	assert.NotEqual(t, NewID("task"), NewID("task"))
}
