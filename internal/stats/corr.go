package stats

import (
	"math"
	"sort"

	"ticksim-go/internal/market"
)

// PairTracker maintains bounded per-side price history for every unordered
// pair of the configured symbols and computes a windowed Pearson correlation
// on demand. An undefined correlation (too few samples, or zero variance on
// either side) is reported as NaN; NaN never satisfies a detector threshold.
type PairTracker struct {
	perSide int
	samples int
	pairs   []market.Pair
	states  map[string]*pairState
}

type pairState struct {
	x    *Window // prices of pair.A
	y    *Window // prices of pair.B
	corr float64
}

// NewPairTracker builds state for every unordered pair of the given symbols.
// perSide caps each side's history; samples is how many aligned entries each
// correlation uses. Fewer than two distinct symbols yields a tracker with no
// pairs.
func NewPairTracker(symbols []string, perSide, samples int) *PairTracker {
	if perSide < 2 {
		perSide = 2
	}
	if samples < 2 {
		samples = 2
	}
	if samples > perSide {
		samples = perSide
	}

	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if sym != "" {
			unique[sym] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(unique))
	for sym := range unique {
		sorted = append(sorted, sym)
	}
	sort.Strings(sorted)

	t := &PairTracker{
		perSide: perSide,
		samples: samples,
		states:  make(map[string]*pairState),
	}
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pair := market.NewPair(sorted[i], sorted[j])
			t.pairs = append(t.pairs, pair)
			t.states[pair.Key()] = &pairState{
				x:    NewWindow(perSide),
				y:    NewWindow(perSide),
				corr: math.NaN(),
			}
		}
	}
	return t
}

// Observe routes a price sample into every pair containing symbol, evicting
// the oldest sample of that side at capacity.
func (t *PairTracker) Observe(symbol string, price float64) {
	for _, pair := range t.pairs {
		if !pair.Contains(symbol) {
			continue
		}
		st := t.states[pair.Key()]
		if pair.A == symbol {
			st.x.Push(price)
		} else {
			st.y.Push(price)
		}
	}
}

// Correlation computes the Pearson coefficient over the most recent aligned
// samples of each side. The alignment is by buffer position, not by
// timestamp: each side contributes its own latest entries regardless of how
// many ticks the other side has seen since. Returns NaN until both sides
// hold at least the configured sample count, and NaN when either side's
// variance is zero. The computed value is retained for Last.
func (t *PairTracker) Correlation(pair market.Pair) float64 {
	st := t.states[pair.Key()]
	if st == nil {
		return math.NaN()
	}
	if st.x.Len() < t.samples || st.y.Len() < t.samples {
		return math.NaN()
	}
	corr := pearson(st.x.Tail(t.samples), st.y.Tail(t.samples))
	st.corr = corr
	return corr
}

// Last returns the most recently computed correlation for the pair, NaN
// before the first computation or for an unknown pair.
func (t *PairTracker) Last(pair market.Pair) float64 {
	st := t.states[pair.Key()]
	if st == nil {
		return math.NaN()
	}
	return st.corr
}

// Pairs returns the watched pairs in deterministic (sorted) order.
func (t *PairTracker) Pairs() []market.Pair {
	out := make([]market.Pair, len(t.pairs))
	copy(out, t.pairs)
	return out
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx <= 0 || vy <= 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}
