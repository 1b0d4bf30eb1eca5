// Package metrics exposes Prometheus counters for tracker and registry operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name.
	Namespace string
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: "stagetrack",
	}
}

// Recorder counts operations. A nil Recorder is valid and records nothing.
type Recorder struct {
	stagesAdded    prometheus.Counter
	stageUpdates   *prometheus.CounterVec
	trackersAdded  prometheus.Counter
	trackerUpdates *prometheus.CounterVec
	trackers       prometheus.Gauge
}

// New registers the collectors described by cfg. It returns a nil Recorder
// when cfg.Enabled is false.
func New(cfg Config) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		stagesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "stages_added_total",
			Help:      "Stages appended to trackers.",
		}),
		stageUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "stage_updates_total",
			Help:      "Stage status updates by result (applied or missed).",
		}, []string{"result"}),
		trackersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "trackers_added_total",
			Help:      "Trackers added to the registry.",
		}),
		trackerUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "tracker_updates_total",
			Help:      "Tracker replacements by result (replaced or missed).",
		}, []string{"result"}),
		trackers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "trackers",
			Help:      "Trackers currently held by the registry.",
		}),
	}

	for _, c := range []prometheus.Collector{r.stagesAdded, r.stageUpdates, r.trackersAdded, r.trackerUpdates, r.trackers} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StageAdded records one appended stage.
func (r *Recorder) StageAdded() {
	if r == nil {
		return
	}
	r.stagesAdded.Inc()
}

// StageUpdated records a stage update; applied is false when the stage was not found.
func (r *Recorder) StageUpdated(applied bool) {
	if r == nil {
		return
	}
	r.stageUpdates.WithLabelValues(result(applied, "applied")).Inc()
}

// TrackerAdded records a tracker insert and the registry size after it.
func (r *Recorder) TrackerAdded(total int) {
	if r == nil {
		return
	}
	r.trackersAdded.Inc()
	r.trackers.Set(float64(total))
}

// TrackerUpdated records a tracker replacement; replaced is false when no tracker matched.
func (r *Recorder) TrackerUpdated(replaced bool) {
	if r == nil {
		return
	}
	r.trackerUpdates.WithLabelValues(result(replaced, "replaced")).Inc()
}

// SetTrackers sets the registry size gauge.
func (r *Recorder) SetTrackers(total int) {
	if r == nil {
		return
	}
	r.trackers.Set(float64(total))
}

func result(ok bool, hit string) string {
	if ok {
		return hit
	}
	return "missed"
}
