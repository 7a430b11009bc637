package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wikilinks/internal/logger"
)

const namespace = "wikilinks"

// Queue describes a bounded channel whose depth is sampled by Monitor and
// exported as a gauge.
type Queue struct {
	Name string
	Len  func() int
	Cap  int
}

// QueueOf adapts a channel to Queue.
func QueueOf[T any](name string, ch chan T) Queue {
	return Queue{Name: name, Len: func() int { return len(ch) }, Cap: cap(ch)}
}

// RegisterStats exposes s through reg as counters read at scrape time.
func RegisterStats(reg prometheus.Registerer, s *Stats) {
	factory := promauto.With(reg)
	for _, c := range []struct {
		name, help string
		load       func() int64
	}{
		{"chunks_total", "Decompressed chunks produced.", s.Chunks.Load},
		{"decompressed_bytes_total", "Decompressed bytes produced.", s.Bytes.Load},
		{"pages_total", "Page units seen by the parser.", s.Pages.Load},
		{"redirects_total", "Redirect pages skipped.", s.Redirects.Load},
		{"malformed_pages_total", "Page units dropped for a missing title or body.", s.Malformed.Load},
		{"batches_total", "Batches handed to extraction workers.", s.Batches.Load},
		{"extract_errors_total", "Pages skipped after an extraction failure.", s.ExtractErrors.Load},
		{"records_total", "Site records written.", s.Records.Load},
		{"links_total", "Links written across all site records.", s.Links.Load},
	} {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      c.name,
			Help:      c.help,
		}, func() float64 { return float64(c.load()) })
	}
}

// RegisterQueues exposes the depth of each queue as a gauge labelled by name.
func RegisterQueues(reg prometheus.Registerer, queues ...Queue) {
	factory := promauto.With(reg)
	for _, q := range queues {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "queue_depth",
			Help:        "Items buffered in a pipeline queue.",
			ConstLabels: prometheus.Labels{"queue": q.Name},
		}, func() float64 { return float64(q.Len()) })
	}
}

// Server is a running metrics endpoint.
type Server struct {
	Addr string
	srv  *http.Server
}

// Serve starts an HTTP listener exposing reg on /metrics.
func Serve(addr string, reg *prometheus.Registry, log logger.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	s := &Server{
		Addr: ln.Addr().String(),
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("metrics server listening", zap.String("addr", s.Addr))
	return s, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
