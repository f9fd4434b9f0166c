// Package metrics exposes Prometheus counters for study activity.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	ratings    *prometheus.CounterVec
	selections *prometheus.HistogramVec
	activities *prometheus.CounterVec
	reminders  *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ratings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voca_ratings_total",
				Help: "Total number of item ratings",
			},
			[]string{"lang", "kind", "quality", "first"},
		),
		selections: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voca_selection_size",
				Help:    "Number of items returned by a selection policy",
				Buckets: []float64{0, 1, 5, 10, 15, 20, 30},
			},
			[]string{"lang", "policy"},
		),
		activities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voca_activities_completed_total",
				Help: "Total number of activity completion signals",
			},
			[]string{"lang", "activity"},
		),
		reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voca_reminders_total",
				Help: "Total number of reminder deliveries",
			},
			[]string{"lang", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.ratings,
		m.selections,
		m.activities,
		m.reminders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRating(lang, kind string, quality int, first bool) {
	if m == nil {
		return
	}
	m.ratings.WithLabelValues(lang, kind, strconv.Itoa(quality), strconv.FormatBool(first)).Inc()
}

func (m *Metrics) ObserveSelection(lang, policy string, size int) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(lang, policy).Observe(float64(size))
}

func (m *Metrics) ObserveActivity(lang, activity string) {
	if m == nil {
		return
	}
	m.activities.WithLabelValues(lang, activity).Inc()
}

func (m *Metrics) ObserveReminder(lang string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.reminders.WithLabelValues(lang, outcome).Inc()
}
