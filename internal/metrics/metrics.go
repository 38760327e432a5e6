// Package metrics exposes Prometheus instruments for analysis and generation calls.
package metrics

import (
	"errors"
	"net/http"

	"github.com/cabcoat/cabcoat/internal/providers"
	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cabcoat"

// Outcome label values.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeNotKitchen   = "not_kitchen"
	OutcomeNoImage      = "no_image"
	OutcomeAccessDenied = "access_denied"
)

// Recorder implements session.Observer on its own registry.
type Recorder struct {
	registry    *prometheus.Registry
	analyses    *prometheus.CounterVec
	generations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	unlocks     prometheus.Counter
	redirects   prometheus.Counter
}

// New registers every instrument on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Finished photo analyses by outcome.",
		}, []string{"outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Finished generations by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_call_seconds",
			Help:      "Duration of analysis and synthesis calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}, []string{"op"}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unlocks_total",
			Help:      "Successful email unlocks.",
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unlock_redirects_total",
			Help:      "Generation requests deferred behind the email unlock.",
		}),
	}
	r.registry.MustRegister(r.analyses, r.generations, r.latency, r.unlocks, r.redirects)
	return r
}

// Registry returns the registry backing Handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) AnalysisFinished(ev session.AnalysisEvent) {
	r.latency.WithLabelValues("analysis").Observe(ev.Duration.Seconds())
	var nk *session.NotAKitchenError
	if errors.As(ev.Err, &nk) {
		r.analyses.WithLabelValues(OutcomeNotKitchen).Inc()
		return
	}
	r.analyses.WithLabelValues(outcome(ev.Err)).Inc()
}

func (r *Recorder) GenerationFinished(ev session.GenerationEvent) {
	r.latency.WithLabelValues("generation").Observe(ev.Duration.Seconds())
	r.generations.WithLabelValues(outcome(ev.Err)).Inc()
}

// UnlockRecorded counts a successful unlock.
func (r *Recorder) UnlockRecorded() {
	r.unlocks.Inc()
}

// RedirectRecorded counts a generation request that hit the unlock gate.
func (r *Recorder) RedirectRecorded() {
	r.redirects.Inc()
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, providers.ErrNoImage) {
		return OutcomeNoImage
	}
	var svc *session.ServiceError
	if errors.As(err, &svc) && svc.AccessDenied() {
		return OutcomeAccessDenied
	}
	return OutcomeError
}
