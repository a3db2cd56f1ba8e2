package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	boardAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of CRM API requests broken down by endpoint and result.",
	}, []string{"endpoint", "result"})

	boardAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for CRM API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"endpoint", "result"})

	reorderMoves = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "board",
		Name:      "reorder_batch_size",
		Help:      "Number of moves per accepted reorder batch.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
	})
)

type instrumentedWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *instrumentedWriter) WriteHeader(status int) {
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *instrumentedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func instrumentAPI(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &instrumentedWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		result := strconv.Itoa(rec.status / 100 * 100)
		boardAPIRequests.WithLabelValues(endpoint, result).Inc()
		boardAPILatency.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
	}
}
