// Package cleanup records best-effort removal of external resources.
// A failed step is logged and counted, never returned as an error.
package cleanup

import (
	"errors"
	"io/fs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of one cleanup step.
type Result int

const (
	// Removed means the resource existed and is gone.
	Removed Result = iota
	// NotFound means there was nothing to remove.
	NotFound
	// Failed means the resource may still exist.
	Failed
)

func (r Result) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	default:
		return "failed"
	}
}

var steps = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "resource_cleanup_steps_total",
		Help: "Number of external resource cleanup steps, differentiated by result.",
	},
	[]string{"result"},
)

// notFounder is implemented by remote errors that know about missing resources.
type notFounder interface {
	NotFound() bool
}

// Step is one attempted removal.
type Step struct {
	Target string
	Result Result
	Err    error
}

// Report collects the steps of one cleanup run.
type Report struct {
	Steps []Step
}

// Classify maps a removal error to a Result.
func Classify(err error) Result {
	if err == nil {
		return Removed
	}

	if errors.Is(err, fs.ErrNotExist) {
		return NotFound
	}

	var nf notFounder
	if errors.As(err, &nf) && nf.NotFound() {
		return NotFound
	}

	return Failed
}

// Add records the outcome of removing target.
func (r *Report) Add(target string, err error) Result {
	result := Classify(err)
	r.Steps = append(r.Steps, Step{Target: target, Result: result, Err: err})

	return result
}

// Merge appends the steps of other.
func (r *Report) Merge(other Report) {
	r.Steps = append(r.Steps, other.Steps...)
}

// Count returns the number of steps with result.
func (r *Report) Count(result Result) int {
	n := 0

	for _, s := range r.Steps {
		if s.Result == result {
			n++
		}
	}

	return n
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	return r.Count(Failed) > 0
}

// Log writes every step to the global logger and counts it.
func (r *Report) Log(msg string) {
	for _, s := range r.Steps {
		steps.WithLabelValues(s.Result.String()).Inc()

		level := zerolog.DebugLevel
		if s.Result == Failed {
			level = zerolog.WarnLevel
		}

		log.WithLevel(level).Err(s.Err).Str("target", s.Target).Str("result", s.Result.String()).Msg(msg)
	}
}
