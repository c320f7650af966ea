package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Method instruments one named operation: how long it takes, how often it
// succeeds or fails, and how many calls are running right now.
type Method struct {
	name     string
	duration prometheus.Observer
	success  prometheus.Counter
	failure  prometheus.Counter
	inFlight prometheus.Gauge
}

// Name returns the method label value.
func (m *Method) Name() string {
	return m.name
}

// Track runs fn and records its latency and outcome. The error from fn is
// returned unchanged. A panic in fn still releases the in-flight gauge and
// is counted as an error before it propagates.
func (m *Method) Track(fn func() error) (err error) {
	m.inFlight.Inc()
	start := time.Now()
	completed := false
	defer func() {
		m.inFlight.Dec()
		m.duration.Observe(time.Since(start).Seconds())
		if err != nil || !completed {
			m.failure.Inc()
			return
		}
		m.success.Inc()
	}()
	err = fn()
	completed = true
	return err
}

// Timer is a named latency histogram for explicit spans.
type Timer struct {
	name      string
	histogram prometheus.Histogram
}

// Name returns the timer name without namespace or unit suffix.
func (t *Timer) Name() string {
	return t.name
}

// Time starts a span; call ObserveDuration on the result to stop it.
func (t *Timer) Time() *prometheus.Timer {
	return prometheus.NewTimer(t.histogram)
}
