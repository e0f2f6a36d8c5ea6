package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	TicksTotal.WithLabelValues("AAPL").Inc()
	SignalsTotal.WithLabelValues("ZBreak").Inc()
	TickLatency.Observe(120)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"sim_ticks_total", "sim_signals_total", "sim_tick_latency_us"} {
		if !found[name] {
			t.Fatalf("%s metric not found", name)
		}
	}
}
