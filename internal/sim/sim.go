// Package sim drives a full simulation run: the tick generator, rolling
// statistics, signal detection and latency accounting advance together in a
// single loop owned by one goroutine.
package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"ticksim-go/internal/detect"
	"ticksim-go/internal/feed"
	"ticksim-go/internal/latency"
	"ticksim-go/internal/market"
	"ticksim-go/internal/metrics"
	"ticksim-go/internal/stats"
)

// Cancellation is polled every stopCheckStride ticks rather than per tick.
const stopCheckStride = 256

// Params sizes a run. Zero values take documented defaults; explicitly
// invalid values fail construction.
type Params struct {
	Symbols      []string
	DurationSecs int
	TickRate     int // ticks per second per symbol
	Seed         int64
	Model        feed.Model

	InitialPrice  float64
	Volatility    float64
	Drift         float64
	MeanReversion float64

	StatsWindow int // default 100
	PairWindow  int // default 50, per pair side
	CorrSamples int // default 20, most recent aligned samples

	Detector detect.Config

	Checkpoints int // progress log count over the run, default 20
}

func (p Params) validate() error {
	if p.DurationSecs <= 0 {
		return fmt.Errorf("duration must be at least 1 second, got %d", p.DurationSecs)
	}
	if p.TickRate <= 0 {
		return fmt.Errorf("tick rate must be at least 1, got %d", p.TickRate)
	}
	if p.InitialPrice < 0 {
		return fmt.Errorf("initial price must not be negative, got %.4f", p.InitialPrice)
	}
	if p.Volatility < 0 {
		return fmt.Errorf("volatility must not be negative, got %.4f", p.Volatility)
	}
	if p.MeanReversion < 0 {
		return fmt.Errorf("mean reversion must not be negative, got %.4f", p.MeanReversion)
	}
	if p.StatsWindow != 0 && p.StatsWindow < 2 {
		return fmt.Errorf("stats window must hold at least 2 samples, got %d", p.StatsWindow)
	}
	if p.PairWindow != 0 && p.PairWindow < 2 {
		return fmt.Errorf("pair window must hold at least 2 samples, got %d", p.PairWindow)
	}
	if p.CorrSamples != 0 && p.CorrSamples < 2 {
		return fmt.Errorf("correlation sample count must be at least 2, got %d", p.CorrSamples)
	}
	if p.Detector.ZScoreThreshold < 0 {
		return fmt.Errorf("z-score threshold must not be negative, got %.4f", p.Detector.ZScoreThreshold)
	}
	if p.Detector.CorrelationThreshold < 0 || p.Detector.CorrelationThreshold >= 1 {
		return fmt.Errorf("correlation threshold must lie in [0,1), got %.4f", p.Detector.CorrelationThreshold)
	}
	if p.Detector.VolumeZThreshold < 0 {
		return fmt.Errorf("volume z threshold must not be negative, got %.4f", p.Detector.VolumeZThreshold)
	}
	if p.Detector.SymbolCadence < 0 {
		return fmt.Errorf("symbol cadence must not be negative, got %d", p.Detector.SymbolCadence)
	}
	if p.Detector.PairCadence < 0 {
		return fmt.Errorf("pair cadence must not be negative, got %d", p.Detector.PairCadence)
	}
	return nil
}

// Metrics summarizes throughput and latency for a finished run. Percentiles
// are order statistics over the raw per-tick samples, not bucket estimates.
type Metrics struct {
	TotalTicks   int64
	TotalSignals int64
	Elapsed      time.Duration
	AvgRate      float64 // ticks per wall-clock second
	AvgLatencyUS float64
	P95LatencyUS int64
	P99LatencyUS int64
}

// Result carries everything a run produced. Completed is false when the
// context was cancelled mid-run; counters and signals then cover the ticks
// processed up to that point.
type Result struct {
	RunID       string
	Completed   bool
	Signals     []market.Signal
	FinalPrices map[string]float64
	Histogram   *latency.Histogram
	Metrics     Metrics
}

// Progress is the checkpoint snapshot handed to a WithProgress callback.
type Progress struct {
	RunID    string
	Fraction float64
	Ticks    int64
	Signals  int64
	Elapsed  time.Duration
}

// Sim owns one simulation run. A Sim runs once; build a new one per run.
type Sim struct {
	params   Params
	log      zerolog.Logger
	runID    string
	symbols  []string
	gen      *feed.Generator
	tracker  *stats.Tracker
	pairs    *stats.PairTracker // nil for a single-symbol universe
	det      *detect.Detector
	hist     *latency.Histogram
	progress func(Progress)
}

// Option adjusts Sim construction.
type Option func(*Sim)

// WithProgress registers a callback invoked at every checkpoint, never per
// tick. The callback must not block; it receives a value snapshot and cannot
// reach simulation state.
func WithProgress(fn func(Progress)) Option {
	return func(s *Sim) { s.progress = fn }
}

// New validates the parameters and assembles a run. Pair tracking is skipped
// when fewer than two distinct symbols are configured.
func New(p Params, log zerolog.Logger, opts ...Option) (*Sim, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.StatsWindow == 0 {
		p.StatsWindow = 100
	}
	if p.PairWindow == 0 {
		p.PairWindow = 50
	}
	if p.CorrSamples == 0 {
		p.CorrSamples = 20
	}
	if p.CorrSamples > p.PairWindow {
		return nil, fmt.Errorf("correlation sample count %d exceeds pair window %d", p.CorrSamples, p.PairWindow)
	}
	if p.Checkpoints <= 0 {
		p.Checkpoints = 20
	}

	genOpts := []feed.Option{feed.WithModel(p.Model)}
	if p.InitialPrice > 0 {
		genOpts = append(genOpts, feed.WithInitialPrice(p.InitialPrice))
	}
	if p.Volatility > 0 {
		genOpts = append(genOpts, feed.WithVolatility(p.Volatility))
	}
	if p.Drift != 0 {
		genOpts = append(genOpts, feed.WithDrift(p.Drift))
	}
	if p.MeanReversion > 0 {
		genOpts = append(genOpts, feed.WithMeanReversion(p.MeanReversion))
	}
	gen := feed.New(p.Symbols, p.Seed, genOpts...)

	symbols := gen.Symbols()
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	var pairs *stats.PairTracker
	if len(symbols) >= 2 {
		pairs = stats.NewPairTracker(symbols, p.PairWindow, p.CorrSamples)
	}

	runID := uuid.NewString()
	return &Sim{
		params:  p,
		log:     log.With().Str("run_id", runID).Logger(),
		runID:   runID,
		symbols: symbols,
		gen:     gen,
		tracker: stats.NewTracker(p.StatsWindow),
		pairs:   pairs,
		det:     detect.New(p.Detector),
		hist:    latency.New(),
	}, nil
}

// RunID returns the identifier stamped on this run's logs and result.
func (s *Sim) RunID() string { return s.runID }

// Total returns the number of ticks a full run processes.
func (s *Sim) Total() int64 {
	return int64(s.params.DurationSecs) * int64(s.params.TickRate) * int64(len(s.symbols))
}

// Run processes every scheduled tick round-robin across symbols and returns
// the collected result. Cancelling the context stops the run cleanly at the
// next stride boundary with a partial result.
func (s *Sim) Run(ctx context.Context) *Result {
	total := s.Total()
	res := &Result{RunID: s.runID, Histogram: s.hist}
	latencies := make([]int64, 0, total)

	tickCounters := make([]prometheus.Counter, len(s.symbols))
	for i, sym := range s.symbols {
		tickCounters[i] = metrics.TicksTotal.WithLabelValues(sym)
	}

	checkpoint := total / int64(s.params.Checkpoints)
	s.log.Info().
		Int("symbols", len(s.symbols)).
		Int64("total_ticks", total).
		Str("model", string(s.params.Model)).
		Msg("run started")

	start := time.Now()
	var done int64
	for done < total {
		if done%stopCheckStride == 0 && ctxDone(ctx) {
			s.log.Warn().Int64("ticks_done", done).Msg("run interrupted")
			break
		}

		idx := done % int64(len(s.symbols))
		tk := s.gen.Next(s.symbols[idx])
		done++

		s.tracker.Update(tk.Symbol, tk.Price, tk.Volume)
		if s.pairs != nil {
			s.pairs.Observe(tk.Symbol, tk.Price)
		}
		s.hist.Record(tk.LatencyUS)
		latencies = append(latencies, tk.LatencyUS)
		tickCounters[idx].Inc()
		metrics.TickLatency.Observe(float64(tk.LatencyUS))

		for _, sig := range s.det.OnTick(done, tk, s.tracker, s.pairs) {
			res.Signals = append(res.Signals, sig)
			metrics.SignalsTotal.WithLabelValues(sig.Kind.String()).Inc()
			s.log.Debug().
				Str("type", sig.Kind.String()).
				Str("symbol", sig.Symbol).
				Float64("strength", sig.Strength).
				Float64("confidence", sig.Confidence).
				Msg("signal")
		}

		if checkpoint > 0 && done%checkpoint == 0 {
			s.log.Info().
				Int64("ticks_done", done).
				Int64("signals", int64(len(res.Signals))).
				Msgf("progress %d%%", 100*done/total)
			if s.progress != nil {
				s.progress(Progress{
					RunID:    s.runID,
					Fraction: float64(done) / float64(total),
					Ticks:    done,
					Signals:  int64(len(res.Signals)),
					Elapsed:  time.Since(start),
				})
			}
		}
	}
	elapsed := time.Since(start)

	res.Completed = done == total
	res.FinalPrices = s.gen.Prices()
	res.Metrics = Metrics{
		TotalTicks:   done,
		TotalSignals: int64(len(res.Signals)),
		Elapsed:      elapsed,
		AvgLatencyUS: avgInt64(latencies),
		P95LatencyUS: percentileInt64(latencies, 0.95),
		P99LatencyUS: percentileInt64(latencies, 0.99),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.Metrics.AvgRate = float64(done) / secs
	}

	s.log.Info().
		Int64("ticks", done).
		Int64("signals", res.Metrics.TotalSignals).
		Dur("elapsed", elapsed).
		Bool("completed", res.Completed).
		Msg("run finished")
	return res
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func avgInt64(samples []int64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, s := range samples {
		sum += s
	}
	return float64(sum) / float64(len(samples))
}

// percentileInt64 is the nearest-rank order statistic over a copy of samples.
func percentileInt64(samples []int64, q float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]int64, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
