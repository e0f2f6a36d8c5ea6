package sim

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"ticksim-go/internal/market"
)

func baseParams() Params {
	return Params{
		Symbols:      []string{"AAPL", "MSFT"},
		DurationSecs: 1,
		TickRate:     10,
		Seed:         7,
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	log := zerolog.Nop()

	p := baseParams()
	p.Symbols = []string{"", "   "}
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for blank symbol universe")
	}

	p = baseParams()
	p.DurationSecs = 0
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for zero duration")
	}

	p = baseParams()
	p.TickRate = -1
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for negative tick rate")
	}

	p = baseParams()
	p.Volatility = -0.5
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for negative volatility")
	}

	p = baseParams()
	p.StatsWindow = 1
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for one-sample stats window")
	}

	p = baseParams()
	p.Detector.CorrelationThreshold = 1.5
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for correlation threshold above 1")
	}

	p = baseParams()
	p.Detector.ZScoreThreshold = -2
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error for negative z-score threshold")
	}

	p = baseParams()
	p.PairWindow = 10
	p.CorrSamples = 20
	if _, err := New(p, log); err == nil {
		t.Fatalf("expected error when correlation samples exceed pair window")
	}
}

func TestTotalCountsDistinctSymbols(t *testing.T) {
	p := baseParams()
	p.Symbols = []string{"AAPL", "AAPL", " MSFT "}
	s, err := New(p, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if s.Total() != 20 {
		t.Fatalf("expected 1s x 10/s x 2 symbols = 20 ticks, got %d", s.Total())
	}
}

func TestRunProcessesEveryScheduledTick(t *testing.T) {
	s, err := New(baseParams(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	res := s.Run(context.Background())
	if !res.Completed {
		t.Fatalf("expected completed run")
	}
	if res.RunID == "" || res.RunID != s.RunID() {
		t.Fatalf("unexpected run id %q", res.RunID)
	}
	if res.Metrics.TotalTicks != 20 {
		t.Fatalf("expected 20 ticks, got %d", res.Metrics.TotalTicks)
	}
	if res.Histogram.Total() != 20 {
		t.Fatalf("expected 20 histogram samples, got %d", res.Histogram.Total())
	}
	if len(res.FinalPrices) != 2 {
		t.Fatalf("expected 2 final prices, got %d", len(res.FinalPrices))
	}
	for sym, px := range res.FinalPrices {
		if px <= 0 {
			t.Fatalf("final price for %s not positive: %.4f", sym, px)
		}
	}
	if res.Metrics.AvgLatencyUS < 10 {
		t.Fatalf("average latency below generator floor: %.2f", res.Metrics.AvgLatencyUS)
	}
	if res.Metrics.P99LatencyUS < res.Metrics.P95LatencyUS {
		t.Fatalf("p99 %d below p95 %d", res.Metrics.P99LatencyUS, res.Metrics.P95LatencyUS)
	}
	if res.Metrics.AvgRate <= 0 {
		t.Fatalf("expected positive tick rate, got %.2f", res.Metrics.AvgRate)
	}
	if res.Metrics.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time")
	}
}

func TestRunIsReproducible(t *testing.T) {
	p := Params{
		Symbols:      []string{"AAPL", "MSFT", "TSLA"},
		DurationSecs: 2,
		TickRate:     100,
		Seed:         42,
	}

	first, err := New(p, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	second, err := New(p, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	a := first.Run(context.Background())
	b := second.Run(context.Background())

	if len(a.Signals) != len(b.Signals) {
		t.Fatalf("signal counts differ: %d vs %d", len(a.Signals), len(b.Signals))
	}
	for i := range a.Signals {
		x, y := a.Signals[i], b.Signals[i]
		if x.Kind != y.Kind || x.Symbol != y.Symbol || x.Secondary != y.Secondary {
			t.Fatalf("signal %d identity differs: %+v vs %+v", i, x, y)
		}
		if x.Strength != y.Strength || x.Confidence != y.Confidence || x.LatencyUS != y.LatencyUS {
			t.Fatalf("signal %d values differ: %+v vs %+v", i, x, y)
		}
	}
	for sym, px := range a.FinalPrices {
		if b.FinalPrices[sym] != px {
			t.Fatalf("final price for %s differs: %.8f vs %.8f", sym, px, b.FinalPrices[sym])
		}
	}
	if a.Metrics.P95LatencyUS != b.Metrics.P95LatencyUS {
		t.Fatalf("p95 differs: %d vs %d", a.Metrics.P95LatencyUS, b.Metrics.P95LatencyUS)
	}
}

func TestSingleSymbolSkipsPairRules(t *testing.T) {
	p := Params{
		Symbols:      []string{"AAPL"},
		DurationSecs: 2,
		TickRate:     500,
		Seed:         3,
	}
	s, err := New(p, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	res := s.Run(context.Background())
	if !res.Completed {
		t.Fatalf("expected completed run")
	}
	for _, sig := range res.Signals {
		if sig.Kind == market.CorrelationBreak {
			t.Fatalf("pair signal emitted for single-symbol run: %+v", sig)
		}
	}
}

func TestCancelledContextStopsRun(t *testing.T) {
	p := Params{
		Symbols:      []string{"AAPL", "MSFT"},
		DurationSecs: 10,
		TickRate:     10000,
		Seed:         11,
	}
	s, err := New(p, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.Run(ctx)
	if res.Completed {
		t.Fatalf("expected incomplete run")
	}
	if res.Metrics.TotalTicks != 0 {
		t.Fatalf("expected no ticks after upfront cancel, got %d", res.Metrics.TotalTicks)
	}
}

func TestProgressCallbackCanCancelMidRun(t *testing.T) {
	p := Params{
		Symbols:      []string{"AAPL", "MSFT"},
		DurationSecs: 10,
		TickRate:     10000,
		Seed:         11,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	var last Progress
	s, err := New(p, zerolog.Nop(), WithProgress(func(pr Progress) {
		calls++
		last = pr
		cancel()
	}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	res := s.Run(ctx)
	if calls == 0 {
		t.Fatalf("expected progress callback to fire")
	}
	if last.RunID != s.RunID() {
		t.Fatalf("progress carries run id %q, want %q", last.RunID, s.RunID())
	}
	if last.Fraction <= 0 || last.Fraction > 1 {
		t.Fatalf("progress fraction out of range: %.4f", last.Fraction)
	}
	if last.Ticks == 0 {
		t.Fatalf("expected nonzero ticks in progress snapshot")
	}
	if res.Completed {
		t.Fatalf("expected incomplete run after cancel")
	}
	if res.Metrics.TotalTicks == 0 || res.Metrics.TotalTicks >= s.Total() {
		t.Fatalf("expected partial tick count, got %d of %d", res.Metrics.TotalTicks, s.Total())
	}
	if res.Histogram.Total() != res.Metrics.TotalTicks {
		t.Fatalf("histogram samples %d do not match ticks %d", res.Histogram.Total(), res.Metrics.TotalTicks)
	}
}
