// Package metrics exposes Prometheus counters for the guide.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

const namespace = "islandguide"

// Reload results.
const (
	ReloadOK    = "ok"
	ReloadBusy  = "busy"
	ReloadError = "error"
)

var _ ports.FetchObserver = (*Metrics)(nil)

// Metrics groups the application counters. Register them on a dedicated
// registry so tests can create as many as they like.
type Metrics struct {
	questions      *prometheus.CounterVec
	answers        *prometheus.CounterVec
	transitFetches *prometheus.CounterVec
	ingestedChunks prometheus.Counter
	reloads        *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions received, by route.",
		}, []string{"route"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Knowledge answers, by outcome.",
		}, []string{"outcome"}),
		transitFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transit_fetch_total",
			Help:      "Status page fetch attempts, by tier and result.",
		}, []string{"tier", "result"}),
		ingestedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_chunks_total",
			Help:      "Chunks written to the document index.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Index reloads, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.questions, m.answers, m.transitFetches, m.ingestedChunks, m.reloads)
	return m
}

// ObserveReply counts a routed question and, for the knowledge route,
// whether the answer was grounded.
func (m *Metrics) ObserveReply(reply entities.Reply) {
	m.questions.WithLabelValues(string(reply.Route)).Inc()
	if reply.Route != entities.RouteKnowledge {
		return
	}
	outcome := "ungrounded"
	if reply.Grounded {
		outcome = "grounded"
	}
	m.answers.WithLabelValues(outcome).Inc()
}

// ObserveFetch implements ports.FetchObserver.
func (m *Metrics) ObserveFetch(tier, result string) {
	m.transitFetches.WithLabelValues(tier, result).Inc()
}

// ObserveIngest counts chunks written by a bootstrap or reload.
func (m *Metrics) ObserveIngest(chunks int) {
	if chunks > 0 {
		m.ingestedChunks.Add(float64(chunks))
	}
}

// ObserveReload records a reload attempt and the chunks it wrote.
func (m *Metrics) ObserveReload(chunks int, err error) {
	switch {
	case err == nil:
		m.reloads.WithLabelValues(ReloadOK).Inc()
		m.ObserveIngest(chunks)
	case errors.Is(err, ports.ErrReloadInProgress):
		m.reloads.WithLabelValues(ReloadBusy).Inc()
	default:
		m.reloads.WithLabelValues(ReloadError).Inc()
		m.ObserveIngest(chunks)
	}
}
