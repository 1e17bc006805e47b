//go:build !noprom

package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	documentsIngested prom.Counter
	documentsFailed   prom.Counter
	queries           *prom.CounterVec
	stepSeconds       *prom.HistogramVec
}

func (p *promRecorder) IncDocumentsIngested() {
	p.documentsIngested.Inc()
}

func (p *promRecorder) IncDocumentsFailed() {
	p.documentsFailed.Inc()
}

func (p *promRecorder) IncQueries(success bool) {
	p.queries.WithLabelValues(fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveStepSeconds(step string, seconds float64) {
	p.stepSeconds.WithLabelValues(step).Observe(seconds)
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := &promRecorder{
		documentsIngested: prom.NewCounter(prom.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Total number of successfully indexed documents",
		}),
		documentsFailed: prom.NewCounter(prom.CounterOpts{
			Name: "documents_failed_total",
			Help: "Total number of documents that failed processing",
		}),
		queries: prom.NewCounterVec(prom.CounterOpts{
			Name: "queries_total",
			Help: "Total number of similarity queries",
		}, []string{"success"}),
		stepSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "pipeline_step_seconds",
			Help:    "Ingestion pipeline step duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"step"}),
	}

	registry.MustRegister(p.documentsIngested, p.documentsFailed, p.queries, p.stepSeconds)
	SetRecorder(p)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() { _ = http.ListenAndServe(addr, mux) }()
	return nil
}
