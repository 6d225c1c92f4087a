package simulation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	metrics "github.com/hashicorp/go-metrics"
	golog "github.com/tochemey/goakt/v3/log"
)

// TickStats is the timing breakdown of one tick.
type TickStats struct {
	Flock       uuid.UUID
	Tick        uint64
	Agents      int
	Workers     int
	Steering    time.Duration // neighbor query + steering, phase 1
	Integration time.Duration // phase 2
	Total       time.Duration
}

// StatsSink receives tick timings. Record is called synchronously at the end
// of a tick, after the next snapshot has been fully computed; it must not
// block for long and must be safe for concurrent use when the scheduler is
// shared.
type StatsSink interface {
	Record(TickStats)
}

// SinkFunc adapts a function to StatsSink.
type SinkFunc func(TickStats)

// Record calls f.
func (f SinkFunc) Record(s TickStats) { f(s) }

// MultiSink fans a record out to several sinks.
type MultiSink []StatsSink

// Record implements StatsSink.
func (m MultiSink) Record(s TickStats) {
	for _, sink := range m {
		sink.Record(s)
	}
}

// LogSink aggregates tick timings and logs one line per flock and interval.
type LogSink struct {
	logger   golog.Logger
	interval time.Duration

	mu    sync.Mutex
	since map[uuid.UUID]*window
}

type window struct {
	start  time.Time
	ticks  int
	agents int
	total  time.Duration
	worst  time.Duration
}

// NewLogSink logs through logger at most once per interval per flock
// (every second when interval is 0).
func NewLogSink(logger golog.Logger, interval time.Duration) *LogSink {
	if interval <= 0 {
		interval = time.Second
	}
	return &LogSink{logger: logger, interval: interval, since: make(map[uuid.UUID]*window)}
}

// Record implements StatsSink.
func (l *LogSink) Record(s TickStats) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.since[s.Flock]
	if !ok {
		w = &window{start: time.Now()}
		l.since[s.Flock] = w
	}
	w.ticks++
	w.agents = s.Agents
	w.total += s.Total
	w.worst = max(w.worst, s.Total)

	if time.Since(w.start) < l.interval {
		return
	}
	avg := w.total / time.Duration(w.ticks)
	l.logger.Infof("📊 TICKS: flock=%s ticks=%d agents=%d workers=%d avg=%.3fms worst=%.3fms",
		s.Flock, w.ticks, w.agents, s.Workers, ms(avg), ms(w.worst))
	*w = window{start: time.Now()}
}

// MetricsSink publishes tick timings as go-metrics samples labelled with the flock.
type MetricsSink struct {
	sink   metrics.MetricSink
	prefix []string
}

// NewMetricsSink emits under prefix (default "boids").
func NewMetricsSink(sink metrics.MetricSink, prefix ...string) *MetricsSink {
	if len(prefix) == 0 {
		prefix = []string{"boids"}
	}
	return &MetricsSink{sink: sink, prefix: prefix}
}

// Record implements StatsSink.
func (m *MetricsSink) Record(s TickStats) {
	labels := []metrics.Label{{Name: "flock", Value: s.Flock.String()}}
	key := func(name ...string) []string {
		return append(append([]string{}, m.prefix...), name...)
	}
	m.sink.SetGaugeWithLabels(key("agents"), float32(s.Agents), labels)
	m.sink.AddSampleWithLabels(key("tick", "steering"), float32(ms(s.Steering)), labels)
	m.sink.AddSampleWithLabels(key("tick", "integration"), float32(ms(s.Integration)), labels)
	m.sink.AddSampleWithLabels(key("tick", "total"), float32(ms(s.Total)), labels)
}

// Average keeps an exponential moving average of the tick timings, in
// milliseconds, for on-screen display.
type Average struct {
	mu          sync.Mutex
	alpha       float64
	primed      bool
	steering    float64
	integration float64
	total       float64
	agents      int
}

// NewAverage returns an Average where each new tick weighs alpha
// (0.05 when alpha is outside (0, 1]).
func NewAverage(alpha float64) *Average {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.05
	}
	return &Average{alpha: alpha}
}

// Record implements StatsSink.
func (a *Average) Record(s TickStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.primed {
		a.steering, a.integration, a.total = ms(s.Steering), ms(s.Integration), ms(s.Total)
		a.primed = true
	} else {
		a.steering = a.steering*(1-a.alpha) + ms(s.Steering)*a.alpha
		a.integration = a.integration*(1-a.alpha) + ms(s.Integration)*a.alpha
		a.total = a.total*(1-a.alpha) + ms(s.Total)*a.alpha
	}
	a.agents = s.Agents
}

// Millis returns the averaged steering, integration and total durations in ms
// and the agent count of the last record.
func (a *Average) Millis() (steering, integration, total float64, agents int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.steering, a.integration, a.total, a.agents
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
