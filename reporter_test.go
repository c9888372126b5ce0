package tsne

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter keeps everything it is told, for assertions.
type recordingReporter struct {
	mu          sync.Mutex
	iters       []int
	costs       []float64
	phases      []string
	diagnostics []string
}

func (r *recordingReporter) Progress(iter int, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iters = append(r.iters, iter)
	r.costs = append(r.costs, cost)
}

func (r *recordingReporter) Phase(name string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, name)
}

func (r *recordingReporter) Diagnostic(msg string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, fmt.Sprintf(msg, args...))
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestSlogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewSlogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))

	r.Progress(50, 1.25)
	r.Phase("main loop", 3*time.Millisecond)
	r.Diagnostic("perplexity %g should be lower than K=%d", 40.0, 30)

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "iteration", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.EqualValues(t, 50, lines[0]["iter"])
	assert.InDelta(t, 1.25, lines[0]["error"], 1e-12)

	assert.Equal(t, "phase completed", lines[1]["msg"])
	assert.Equal(t, "main loop", lines[1]["phase"])

	assert.Equal(t, "WARN", lines[2]["level"])
	assert.Equal(t, "perplexity 40 should be lower than K=30", lines[2]["msg"])
}

func TestNewSlogReporter_NilUsesDefault(t *testing.T) {
	r := NewSlogReporter(nil)
	assert.Same(t, slog.Default(), r.Logger)
}

func TestTimedReportsPhase(t *testing.T) {
	rec := &recordingReporter{}
	called := false
	timed(rec, "input similarities", func() { called = true })

	assert.True(t, called)
	assert.Equal(t, []string{"input similarities"}, rec.phases)
}

func TestNopReporter(t *testing.T) {
	r := NopReporter()
	assert.NotPanics(t, func() {
		r.Progress(1, 0)
		r.Phase("x", 0)
		r.Diagnostic("y %d", 1)
	})
}
