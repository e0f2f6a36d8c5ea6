// Package feed generates the synthetic market data stream that drives a
// simulation run.
package feed

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"ticksim-go/internal/market"
)

// Model selects the stochastic process driving price evolution.
type Model string

const (
	// ModelGBM evolves prices with a geometric Brownian motion step plus an
	// occasional uniform jump folded into the relative change.
	ModelGBM Model = "gbm"
	// ModelOU evolves prices with an Ornstein-Uhlenbeck step reverting
	// toward the initial price.
	ModelOU Model = "ou"
)

// ParseModel maps a configuration string onto a Model, defaulting to GBM.
func ParseModel(s string) Model {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModelOU), "ornstein-uhlenbeck":
		return ModelOU
	default:
		return ModelGBM
	}
}

const (
	// One tick advances model time by one second of a 365-day year.
	dtPerTick = 1.0 / (365 * 24 * 3600)

	jumpProbability  = 0.001
	jumpMax          = 0.02
	spikeProbability = 0.005
	baseVolume       = 1000.0
	latencyMeanUS    = 100.0
	latencyFloorUS   = 10
	priceFloor       = 0.01
)

// Generator produces ticks one at a time from a seeded random source. All
// randomness flows through the injected seed, so two generators built with
// identical arguments emit identical streams. Not safe for concurrent use;
// the simulation loop is its only caller.
type Generator struct {
	rng           *rand.Rand
	model         Model
	initialPrice  float64
	volatility    float64
	drift         float64
	meanReversion float64
	symbols       []string
	prices        map[string]float64
}

// Option configures Generator construction parameters.
type Option func(*Generator)

// WithModel selects the price process.
func WithModel(m Model) Option {
	return func(g *Generator) {
		if m == ModelGBM || m == ModelOU {
			g.model = m
		}
	}
}

// WithInitialPrice overrides the starting price for every symbol.
func WithInitialPrice(p float64) Option {
	return func(g *Generator) {
		if p > 0 {
			g.initialPrice = p
		}
	}
}

// WithVolatility overrides the annualized volatility.
func WithVolatility(v float64) Option {
	return func(g *Generator) {
		if v >= 0 {
			g.volatility = v
		}
	}
}

// WithDrift overrides the annualized drift used by the GBM model.
func WithDrift(d float64) Option {
	return func(g *Generator) { g.drift = d }
}

// WithMeanReversion overrides the OU reversion speed toward the initial price.
func WithMeanReversion(theta float64) Option {
	return func(g *Generator) {
		if theta > 0 {
			g.meanReversion = theta
		}
	}
}

// New constructs a generator over the given symbols (deduplicated and sorted
// for determinism) with every symbol starting at the initial price.
func New(symbols []string, seed int64, opts ...Option) *Generator {
	g := &Generator{
		rng:           rand.New(rand.NewSource(seed)),
		model:         ModelGBM,
		initialPrice:  100.0,
		volatility:    0.02,
		meanReversion: 0.5,
		prices:        make(map[string]float64),
	}
	g.setSymbols(symbols)
	for _, opt := range opts {
		opt(g)
	}
	for _, sym := range g.symbols {
		g.prices[sym] = g.initialPrice
	}
	return g
}

func (g *Generator) setSymbols(symbols []string) {
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	g.symbols = g.symbols[:0]
	for sym := range unique {
		g.symbols = append(g.symbols, sym)
	}
	sort.Strings(g.symbols)
}

// Symbols returns a copy of the configured symbol list.
func (g *Generator) Symbols() []string {
	out := make([]string, len(g.symbols))
	copy(out, g.symbols)
	return out
}

// Prices returns a copy of the current per-symbol price map.
func (g *Generator) Prices() map[string]float64 {
	out := make(map[string]float64, len(g.prices))
	for sym, px := range g.prices {
		out[sym] = px
	}
	return out
}

// Next produces the next tick for symbol, advancing that symbol's price state
// and the shared random source. A symbol outside the configured set yields a
// zero Tick.
func (g *Generator) Next(symbol string) market.Tick {
	price, ok := g.prices[symbol]
	if !ok {
		return market.Tick{}
	}
	price = g.step(price)
	g.prices[symbol] = price

	volume := baseVolume * g.uniform(0.5, 2.0)
	if g.rng.Float64() < spikeProbability {
		volume *= g.uniform(3, 8)
	}

	latency := int64(g.rng.ExpFloat64() * latencyMeanUS)
	if latency < latencyFloorUS {
		latency = latencyFloorUS
	}

	return market.Tick{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Ts:        time.Now(),
		LatencyUS: latency,
	}
}

func (g *Generator) step(price float64) float64 {
	z := g.rng.NormFloat64()
	switch g.model {
	case ModelOU:
		price += g.meanReversion*(g.initialPrice-price)*dtPerTick + g.volatility*math.Sqrt(dtPerTick)*z
	default:
		rel := g.drift*dtPerTick + g.volatility*math.Sqrt(dtPerTick)*z
		if g.rng.Float64() < jumpProbability {
			rel += g.uniform(-jumpMax, jumpMax)
		}
		price *= 1 + rel
	}
	if price < priceFloor {
		price = priceFloor
	}
	return price
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rng.Float64()
}
