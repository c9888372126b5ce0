package tsne

import (
	"fmt"
	"log/slog"
	"time"
)

// Reporter receives progress and diagnostics from a running embedding.
// Implementations must be cheap; they are called from the optimizer loop.
type Reporter interface {
	// Progress is called with the current KL divergence every
	// Config.ReportEvery iterations and at the final iteration.
	Progress(iter int, cost float64)

	// Phase is called when a named phase (input similarities, main loop)
	// has finished.
	Phase(name string, elapsed time.Duration)

	// Diagnostic reports a non-fatal condition, such as a perplexity that
	// is too large for the neighborhood it is calibrated over.
	Diagnostic(msg string, args ...any)
}

type nopReporter struct{}

func (nopReporter) Progress(int, float64)       {}
func (nopReporter) Phase(string, time.Duration) {}
func (nopReporter) Diagnostic(string, ...any)   {}

// NopReporter returns a Reporter that discards everything.
func NopReporter() Reporter { return nopReporter{} }

// SlogReporter adapts a *slog.Logger to the Reporter interface.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter returns a Reporter that writes to logger. A nil logger
// uses slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

// Progress logs the current cost at Info level.
func (r *SlogReporter) Progress(iter int, cost float64) {
	r.Logger.Info("iteration", "iter", iter, "error", cost)
}

// Phase logs how long a phase took at Info level.
func (r *SlogReporter) Phase(name string, elapsed time.Duration) {
	r.Logger.Info("phase completed", "phase", name, "elapsed", elapsed)
}

// Diagnostic logs the formatted message at Warn level.
func (r *SlogReporter) Diagnostic(msg string, args ...any) {
	r.Logger.Warn(fmt.Sprintf(msg, args...))
}

// timed calls fn and reports its duration under name.
func timed(r Reporter, name string, fn func()) {
	start := time.Now()
	fn()
	r.Phase(name, time.Since(start))
}
