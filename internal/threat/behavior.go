package threat

import (
	"fmt"
	"math"
	"time"
)

const (
	// emaAlpha is the smoothing factor folding the last window's frequency
	// into the baseline on each decay tick.
	emaAlpha = 0.3
	// warmupTicks is how many decay ticks a pair must survive before its
	// deviation is trusted enough to emit anomalies.
	warmupTicks = 2
	// staleAfter drops pairs that have not been seen for this long.
	staleAfter = 24 * time.Hour
)

// baseline tracks the EMA-smoothed frequency of one (subject, action) pair.
type baseline struct {
	Frequency float64 // count in the current window
	Baseline  float64 // EMA over past windows
	Ticks     int
	LastSeen  time.Time
}

// behaviorTracker maintains per-pair baselines. Callers hold the service
// mutex; the tracker itself is not safe for concurrent use.
type behaviorTracker struct {
	pairs     map[string]*baseline
	threshold float64
}

func newBehaviorTracker(anomalyThreshold float64) *behaviorTracker {
	return &behaviorTracker{
		pairs:     make(map[string]*baseline),
		threshold: anomalyThreshold,
	}
}

func pairKey(subject, action string) string {
	return subject + "|" + action
}

// observe counts the event and returns an anomaly detection when the
// current frequency deviates from the baseline beyond the threshold.
func (t *behaviorTracker) observe(event Event, now time.Time) (Detection, bool) {
	key := pairKey(event.SubjectID, event.Action)
	b, ok := t.pairs[key]
	if !ok {
		b = &baseline{}
		t.pairs[key] = b
	}
	b.Frequency++
	b.LastSeen = now

	if b.Ticks < warmupTicks || b.Baseline <= 0 {
		return Detection{}, false
	}

	deviation := math.Abs(b.Frequency-b.Baseline) / b.Baseline
	if deviation < t.threshold {
		return Detection{}, false
	}

	severity := SeverityMedium
	if deviation >= 2*t.threshold {
		severity = SeverityHigh
	}
	confidence := math.Min(100, 50+deviation*10)

	return Detection{
		Severity:   severity,
		Type:       "behavioral_anomaly",
		Confidence: confidence,
		Indicators: []string{
			fmt.Sprintf("action %q at %.1fx its baseline rate (deviation %.2f)", event.Action, b.Frequency/b.Baseline, deviation),
		},
		Mitigations: []Mitigation{MitigationHeightenMonitoring},
		SubjectID:   event.SubjectID,
	}, true
}

// decay folds each window's frequency into its EMA baseline, resets the
// window counters, and evicts pairs not seen recently.
func (t *behaviorTracker) decay(now time.Time) {
	for key, b := range t.pairs {
		if now.Sub(b.LastSeen) > staleAfter {
			delete(t.pairs, key)
			continue
		}
		b.Baseline = emaAlpha*b.Frequency + (1-emaAlpha)*b.Baseline
		b.Frequency = 0
		b.Ticks++
	}
}

func (t *behaviorTracker) size() int {
	return len(t.pairs)
}
