// Package stats maintains bounded rolling statistics over the tick stream:
// per-symbol price/volume moments and pairwise price correlation.
package stats

// Initialization values reported until a symbol's windows hold more than one
// sample.
const (
	defaultPriceMean  = 100.0
	defaultPriceStd   = 1.0
	defaultVolumeMean = 1000.0
	defaultVolumeStd  = 200.0
)

// Snapshot is a value copy of one symbol's current rolling statistics.
type Snapshot struct {
	PriceMean  float64
	PriceStd   float64
	VolumeMean float64
	VolumeStd  float64
	Samples    int
}

type symbolStats struct {
	prices  *Window
	volumes *Window
	snap    Snapshot
}

// Tracker keeps one bounded price window and one bounded volume window per
// symbol, recomputing mean and population standard deviation from the full
// window contents on every update. Symbols register implicitly on first
// update. The tracker has exactly one writer (the simulation loop) and does
// no locking of its own.
type Tracker struct {
	window  int
	symbols map[string]*symbolStats
}

// NewTracker builds a tracker whose per-symbol windows retain at most window
// samples each.
func NewTracker(window int) *Tracker {
	if window < 2 {
		window = 2
	}
	return &Tracker{window: window, symbols: make(map[string]*symbolStats)}
}

// Update appends one tick's price and volume to the symbol's windows,
// evicting the oldest samples at capacity, then recomputes the derived
// moments. With one retained sample or fewer the initialization defaults
// stand in for the moments.
func (t *Tracker) Update(symbol string, price, volume float64) {
	st := t.symbols[symbol]
	if st == nil {
		st = &symbolStats{
			prices:  NewWindow(t.window),
			volumes: NewWindow(t.window),
			snap: Snapshot{
				PriceMean:  defaultPriceMean,
				PriceStd:   defaultPriceStd,
				VolumeMean: defaultVolumeMean,
				VolumeStd:  defaultVolumeStd,
			},
		}
		t.symbols[symbol] = st
	}
	st.prices.Push(price)
	st.volumes.Push(volume)
	st.snap.Samples = st.prices.Len()
	if st.prices.Len() > 1 {
		st.snap.PriceMean = st.prices.Mean()
		st.snap.PriceStd = st.prices.Std()
	}
	if st.volumes.Len() > 1 {
		st.snap.VolumeMean = st.volumes.Mean()
		st.snap.VolumeStd = st.volumes.Std()
	}
}

// Snapshot returns the symbol's current statistics; ok is false when the
// symbol has never been updated.
func (t *Tracker) Snapshot(symbol string) (Snapshot, bool) {
	st := t.symbols[symbol]
	if st == nil {
		return Snapshot{}, false
	}
	return st.snap, true
}

// Window reports the configured per-symbol sample cap.
func (t *Tracker) Window() int { return t.window }
