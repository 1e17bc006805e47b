package timing

import "sync"

// Tracker aggregates pipeline step durations and estimates how long a
// pending run will take from the running means. State is process-lifetime
// only; restarts begin with no history.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*stepStat
}

type stepStat struct {
	count   int64
	totalMs int64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		stats: make(map[string]*stepStat),
	}
}

// Record adds one observation of a step's duration in milliseconds.
// Negative durations are ignored.
func (t *Tracker) Record(step string, durationMs int64) {
	if durationMs < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stat, ok := t.stats[step]
	if !ok {
		stat = &stepStat{}
		t.stats[step] = stat
	}
	stat.count++
	stat.totalMs += durationMs
}

// Predict estimates the duration of one step in milliseconds from the
// mean of past observations. Steps without history return 0.
func (t *Tracker) Predict(step string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stat, ok := t.stats[step]
	if !ok || stat.count == 0 {
		return 0
	}
	return stat.totalMs / stat.count
}

// PredictTotal estimates a full pipeline pass as the sum of the per-step
// means.
func (t *Tracker) PredictTotal() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total int64
	for _, stat := range t.stats {
		if stat.count > 0 {
			total += stat.totalMs / stat.count
		}
	}
	return total
}

// Averages returns the mean duration per recorded step in milliseconds.
func (t *Tracker) Averages() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]float64, len(t.stats))
	for step, stat := range t.stats {
		if stat.count > 0 {
			out[step] = float64(stat.totalMs) / float64(stat.count)
		}
	}
	return out
}
