package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_ticks_total", Help: "Count of synthetic ticks generated"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_signals_total", Help: "Signals emitted by detection rules"},
		[]string{"type"},
	)
	TickLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sim_tick_latency_us",
			Help:    "Simulated per-tick processing latency in microseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 50000, 1000000},
		},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, SignalsTotal, TickLatency)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
