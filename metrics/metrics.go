// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"match-integrity-system/models"
)

const namespace = "match_integrity"

// Metrics are registered on their own registry so tests can build as many
// as they like.
type Metrics struct {
	Registry *prometheus.Registry

	MatchesSimulated *prometheus.CounterVec // by source
	SimulationTime   prometheus.Histogram
	Verdicts         *prometheus.CounterVec // by verdict
	TrustScores      prometheus.Histogram
	SealsCreated     *prometheus.CounterVec // by algorithm
	Verifications    *prometheus.CounterVec // by result: valid, mismatch, error
	DuplicateResults prometheus.Counter
	LiveMatches      prometheus.Gauge
	StaleLiveInputs  prometheus.Counter
	IngestedRecords  *prometheus.CounterVec // by outcome
	ArchivedRecords  *prometheus.CounterVec // by outcome
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		MatchesSimulated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "matches_total", Help: "Match records produced or accepted.",
		}, []string{"source"}),
		SimulationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "simulation_seconds", Help: "Wall time of a full simulation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_verdicts_total", Help: "Validation reports by verdict.",
		}, []string{"verdict"}),
		TrustScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "trust_score", Help: "Trust scores of validation reports.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		SealsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "seals_total", Help: "Seals created by hash algorithm.",
		}, []string{"algorithm"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "verifications_total", Help: "Seal verifications by result.",
		}, []string{"result"}),
		DuplicateResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "duplicate_results_total", Help: "Submissions whose result hash was already seen.",
		}),
		LiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "live_matches", Help: "Live matches currently running.",
		}),
		StaleLiveInputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "live_stale_inputs_total", Help: "Live inputs dropped for arriving after their tick.",
		}),
		IngestedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingested_records_total", Help: "Records pulled by the ingest worker.",
		}, []string{"outcome"}),
		ArchivedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "archived_records_total", Help: "Sealed records written to the archive.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MatchesSimulated, m.SimulationTime, m.Verdicts, m.TrustScores,
		m.SealsCreated, m.Verifications, m.DuplicateResults,
		m.LiveMatches, m.StaleLiveInputs, m.IngestedRecords, m.ArchivedRecords,
	)
	return m
}

// ObserveReport records a validation report.
func (m *Metrics) ObserveReport(r *models.ValidationReport) {
	m.Verdicts.WithLabelValues(string(r.Verdict)).Inc()
	m.TrustScores.Observe(float64(r.TrustScore))
}

// ObserveVerify records a verification result.
func (m *Metrics) ObserveVerify(res models.VerifyResult) {
	switch {
	case res.Valid:
		m.Verifications.WithLabelValues("valid").Inc()
	case len(res.MismatchedFields) > 0:
		m.Verifications.WithLabelValues("mismatch").Inc()
	default:
		m.Verifications.WithLabelValues("error").Inc()
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
