// Package detect applies threshold rules to rolling statistics, turning the
// tick stream into signal events.
package detect

import (
	"math"

	"ticksim-go/internal/market"
	"ticksim-go/internal/stats"
)

// Config carries detector thresholds and evaluation cadences. Zero values are
// replaced with defaults by New.
type Config struct {
	ZScoreThreshold      float64 `yaml:"zscore_threshold"`      // |z| at or above this emits ZScoreBreak
	CorrelationThreshold float64 `yaml:"correlation_threshold"` // |corr| below this emits CorrelationBreak
	VolumeZThreshold     float64 `yaml:"volume_z_threshold"`    // one-sided volume z floor
	SymbolCadence        int     `yaml:"symbol_cadence"`        // per-symbol rules run every Nth tick
	PairCadence          int     `yaml:"pair_cadence"`          // pair rules run every Nth tick
}

const (
	minZScoreSamples = 10
	stdFloor         = 0.01

	zScoreConfidenceCap   = 0.95
	volumeSpikeConfidence = 0.88
	corrBreakConfidence   = 0.85
)

// Detector is a stateless rule evaluator: every decision derives from the
// tick and the snapshots passed in, never from retained history of its own.
type Detector struct {
	cfg Config
}

// New builds a detector, filling unset config fields with the defaults
// (z-score 2.5, correlation 0.3, volume z 3.0, cadences 10 and 50).
func New(cfg Config) *Detector {
	if cfg.ZScoreThreshold <= 0 {
		cfg.ZScoreThreshold = 2.5
	}
	if cfg.CorrelationThreshold <= 0 {
		cfg.CorrelationThreshold = 0.3
	}
	if cfg.VolumeZThreshold <= 0 {
		cfg.VolumeZThreshold = 3.0
	}
	if cfg.SymbolCadence <= 0 {
		cfg.SymbolCadence = 10
	}
	if cfg.PairCadence <= 0 {
		cfg.PairCadence = 50
	}
	return &Detector{cfg: cfg}
}

// Config returns the effective configuration after defaulting.
func (d *Detector) Config() Config { return d.cfg }

// OnTick evaluates whichever rules are due at the given 1-based tick sequence
// number: per-symbol rules every SymbolCadence ticks against the tick's own
// statistics, pair rules every PairCadence ticks across all watched pairs. A
// nil pair tracker disables pair rules. Insufficient samples and
// zero-variance conditions suppress signals rather than erroring.
func (d *Detector) OnTick(seq int64, tk market.Tick, st *stats.Tracker, pairs *stats.PairTracker) []market.Signal {
	var out []market.Signal
	if seq%int64(d.cfg.SymbolCadence) == 0 {
		out = d.checkSymbol(out, tk, st)
	}
	if pairs != nil && seq%int64(d.cfg.PairCadence) == 0 {
		out = d.checkPairs(out, tk, pairs)
	}
	return out
}

func (d *Detector) checkSymbol(out []market.Signal, tk market.Tick, st *stats.Tracker) []market.Signal {
	snap, ok := st.Snapshot(tk.Symbol)
	if !ok {
		return out
	}

	if snap.Samples >= minZScoreSamples {
		z := (tk.Price - snap.PriceMean) / math.Max(snap.PriceStd, stdFloor)
		if math.Abs(z) >= d.cfg.ZScoreThreshold {
			out = append(out, market.Signal{
				Kind:       market.ZScoreBreak,
				Symbol:     tk.Symbol,
				Strength:   z,
				Confidence: math.Min(zScoreConfidenceCap, math.Abs(z)/5.0),
				Ts:         tk.Ts,
				LatencyUS:  tk.LatencyUS,
			})
		}
	}

	if snap.VolumeStd > 0 {
		vz := (tk.Volume - snap.VolumeMean) / snap.VolumeStd
		if vz >= d.cfg.VolumeZThreshold {
			out = append(out, market.Signal{
				Kind:       market.VolumeSpike,
				Symbol:     tk.Symbol,
				Strength:   vz,
				Confidence: volumeSpikeConfidence,
				Ts:         tk.Ts,
				LatencyUS:  tk.LatencyUS,
			})
		}
	}
	return out
}

func (d *Detector) checkPairs(out []market.Signal, tk market.Tick, pairs *stats.PairTracker) []market.Signal {
	for _, pair := range pairs.Pairs() {
		corr := pairs.Correlation(pair)
		if math.IsNaN(corr) {
			continue
		}
		if math.Abs(corr) < d.cfg.CorrelationThreshold {
			out = append(out, market.Signal{
				Kind:       market.CorrelationBreak,
				Symbol:     pair.A,
				Secondary:  pair.B,
				Strength:   corr,
				Confidence: corrBreakConfidence,
				Ts:         tk.Ts,
				LatencyUS:  tk.LatencyUS,
			})
		}
	}
	return out
}
