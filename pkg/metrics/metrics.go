// Package metrics provides a minimal instrumentation interface with a
// no-op default and an optional Prometheus-backed implementation enabled
// via env.
package metrics

import (
	"sync"
	"time"

	"github.com/OFFIS-RIT/mango/internal/util"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncDocumentsIngested()
	IncDocumentsFailed()
	IncQueries(success bool)
	ObserveStepSeconds(step string, seconds float64)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncDocumentsIngested()              {}
func (n *noopRecorder) IncDocumentsFailed()                {}
func (n *noopRecorder) IncQueries(bool)                    {}
func (n *noopRecorder) ObserveStepSeconds(string, float64) {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

// TimeStep times one pipeline step; the returned func records the
// duration when called.
func TimeStep(step string) func() {
	start := time.Now()
	return func() {
		Default().ObserveStepSeconds(step, time.Since(start).Seconds())
	}
}

// InitFromEnv enables the Prometheus exporter if METRICS_PROMETHEUS is
// true. It also starts a small HTTP server on METRICS_ADDR (default
// :9090) with endpoints: /metrics (prom) and /healthz (200 ok).
func InitFromEnv() {
	if !util.GetEnvBool("METRICS_PROMETHEUS", false) {
		return
	}
	addr := util.GetEnvString("METRICS_ADDR", ":9090")

	// Try to install the prometheus recorder; if it fails, keep noop.
	_ = enablePrometheus(addr)
}

// enablePrometheus is provided by build-tagged files.
