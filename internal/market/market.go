// Package market standardizes payloads shared between tick generation, statistics, and detection layers.
package market

import (
	"fmt"
	"strings"
	"time"
)

// Tick models one synthetic market observation for a single symbol.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Ts        time.Time
	LatencyUS int64 // simulated processing latency, microseconds, >= 0
}

// SignalKind tags the rule that produced a Signal.
type SignalKind uint8

const (
	// ZScoreBreak marks a price excursion beyond the rolling z-score threshold.
	ZScoreBreak SignalKind = iota
	// VolumeSpike marks volume far above its rolling mean.
	VolumeSpike
	// CorrelationBreak marks a watched pair whose correlation collapsed.
	CorrelationBreak
)

// String returns the export name used in CSV output and metrics labels.
func (k SignalKind) String() string {
	switch k {
	case ZScoreBreak:
		return "ZBreak"
	case VolumeSpike:
		return "VolSpike"
	case CorrelationBreak:
		return "CorrBreak"
	default:
		return "Unknown"
	}
}

// ParseKind maps an export name back to its SignalKind.
func ParseKind(s string) (SignalKind, error) {
	switch strings.TrimSpace(s) {
	case "ZBreak":
		return ZScoreBreak, nil
	case "VolSpike":
		return VolumeSpike, nil
	case "CorrBreak":
		return CorrelationBreak, nil
	default:
		return 0, fmt.Errorf("unknown signal kind %q", s)
	}
}

// Signal expresses one detection event. Secondary is set only for
// CorrelationBreak; Confidence lies in [0,1]. Signals are immutable once
// emitted and collected in insertion order.
type Signal struct {
	Kind       SignalKind
	Symbol     string
	Secondary  string
	Strength   float64
	Confidence float64
	Ts         time.Time
	LatencyUS  int64 // latency sample of the tick that triggered the check
}

// Pair names an unordered symbol pair, normalized so A sorts before B.
type Pair struct {
	A string
	B string
}

// NewPair builds a normalized pair from two symbols in either order.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Key returns the canonical "A|B" form used to keep pair state.
func (p Pair) Key() string { return p.A + "|" + p.B }

// Contains reports whether the symbol is one of the pair's sides.
func (p Pair) Contains(symbol string) bool { return p.A == symbol || p.B == symbol }
