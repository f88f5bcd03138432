// Package metrics records conversion metrics on a private prometheus
// registry and writes them as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/physics"
)

const namespace = "eleflat"

// OutcomeAccepted labels emitted electrons; rejected ones carry their
// rejection reason.
const OutcomeAccepted = "accepted"

// Conversion status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var jobLabels = []string{"sample", "match", "region"}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBuckets sets the duration histogram buckets in seconds.
func WithBuckets(b []float64) Option {
	return func(r *Recorder) { r.buckets = b }
}

// WithConstLabels adds labels to every metric, e.g. the tag directory.
func WithConstLabels(l prometheus.Labels) Option {
	return func(r *Recorder) { r.constLabels = l }
}

// Recorder owns the registry and the metric vectors.
type Recorder struct {
	registry    *prometheus.Registry
	buckets     []float64
	constLabels prometheus.Labels

	events      *prometheus.CounterVec
	electrons   *prometheus.CounterVec
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New returns a recorder on a fresh registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		buckets:  prometheus.ExponentialBuckets(1, 2, 12),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "events_total",
		Help:        "Input events read.",
		ConstLabels: r.constLabels,
	}, jobLabels)
	r.electrons = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "electrons_total",
		Help:        "Electron candidates by outcome (accepted or rejection reason).",
		ConstLabels: r.constLabels,
	}, append(append([]string{}, jobLabels...), "outcome"))
	r.conversions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "conversions_total",
		Help:        "Finished conversions by status.",
		ConstLabels: r.constLabels,
	}, append(append([]string{}, jobLabels...), "status"))
	r.duration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Name:        "conversion_duration_seconds",
		Help:        "Wall time of a conversion.",
		Buckets:     r.buckets,
		ConstLabels: r.constLabels,
	}, jobLabels)
	return r
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observer returns the per-event observer of one conversion.
func (r *Recorder) Observer(job flatten.Job) flatten.Observer {
	sample, match, region := labelValues(job)
	o := &jobObserver{
		events:    r.events.WithLabelValues(sample, match, region),
		electrons: make(map[physics.Reason]prometheus.Counter, len(physics.Reasons)+1),
	}
	o.electrons[physics.Accepted] = r.electrons.WithLabelValues(sample, match, region, OutcomeAccepted)
	for _, reason := range physics.Reasons {
		o.electrons[reason] = r.electrons.WithLabelValues(sample, match, region, string(reason))
	}
	return o
}

// ObserveConversion records the end of a conversion.
func (r *Recorder) ObserveConversion(job flatten.Job, err error, took time.Duration) {
	sample, match, region := labelValues(job)
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	r.conversions.WithLabelValues(sample, match, region, status).Inc()
	r.duration.WithLabelValues(sample, match, region).Observe(took.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func labelValues(job flatten.Job) (string, string, string) {
	return job.Sample.String(), job.Match.String(), job.Region.String()
}

type jobObserver struct {
	events    prometheus.Counter
	electrons map[physics.Reason]prometheus.Counter
}

func (o *jobObserver) ObserveEvent() { o.events.Inc() }

func (o *jobObserver) ObserveElectron(reason physics.Reason) {
	if c, ok := o.electrons[reason]; ok {
		c.Inc()
	}
}
