// Package metrics exposes Prometheus counters for the analysis pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/newsgrid/article-analyzer/internal/log"
)

// Metrics holds the pipeline counters on a private registry, so tests can
// create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	EntriesRead      prometheus.Counter
	EntriesReclaimed prometheus.Counter
	BatchesReleased  prometheus.Counter
	ParseRejects     prometheus.Counter
	DocsIndexed      prometheus.Counter
	IndexFailures    prometheus.Counter
}

// New creates the pipeline counters and registers them together with the
// standard Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		EntriesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_stream_entries_read_total",
			Help: "Stream entries fetched from the consumer group.",
		}),
		EntriesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_stream_entries_reclaimed_total",
			Help: "Pending entries reclaimed from dead consumers.",
		}),
		BatchesReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_batches_released_total",
			Help: "Batches released to the analysis stage.",
		}),
		ParseRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_parse_rejects_total",
			Help: "Payloads rejected by the scraped article parser.",
		}),
		DocsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_documents_indexed_total",
			Help: "Documents successfully written to Elasticsearch.",
		}),
		IndexFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_document_index_failures_total",
			Help: "Documents dropped after a per item bulk failure.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EntriesRead,
		m.EntriesReclaimed,
		m.BatchesReleased,
		m.ParseRejects,
		m.DocsIndexed,
		m.IndexFailures,
	)

	return m
}

// Handler returns the HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server is an optional /metrics listener. A Metrics instance works without
// one; the server only matters when an address is configured.
type Server struct {
	srv    *http.Server
	logger *log.Logger
}

// NewServer builds the listener for the given address.
func NewServer(address string, m *Metrics, logger *log.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until the listener is closed. It blocks, so callers run it in
// a goroutine; a clean Shutdown is reported as a nil error.
func (s *Server) Start() error {
	s.logger.Info("metrics listener on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener, waiting for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
