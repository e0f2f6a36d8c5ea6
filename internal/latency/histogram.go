// Package latency buckets per-tick latency samples into a fixed-bound
// histogram and derives distribution summaries from it.
package latency

import (
	"fmt"
	"io"
	"sort"
)

// DefaultBounds spans 0 to one second in microseconds, finer-grained at the
// low end where simulated latencies concentrate.
var DefaultBounds = []int64{0, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 50000, 1000000}

// Bucket is one half-open latency range [LowerUS, UpperUS) with its sample
// count and share of the total in percent.
type Bucket struct {
	LowerUS    int64   `json:"lower_us"`
	UpperUS    int64   `json:"upper_us"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Histogram counts microsecond latency samples into contiguous buckets. The
// first bucket absorbs samples below the lowest bound and the last bucket
// absorbs samples at or above the highest bound. It is not safe for
// concurrent use.
type Histogram struct {
	bounds []int64
	counts []int64
	total  int64
}

// New builds an empty histogram over the given bounds, which are sorted and
// deduplicated first. Called with fewer than two distinct bounds it falls
// back to DefaultBounds.
func New(bounds ...int64) *Histogram {
	bs := normalizeBounds(bounds)
	return &Histogram{
		bounds: bs,
		counts: make([]int64, len(bs)-1),
	}
}

// FromSamples builds a histogram over DefaultBounds and records every sample.
func FromSamples(samples []int64) *Histogram {
	h := New()
	for _, s := range samples {
		h.Record(s)
	}
	return h
}

// FromBuckets rebuilds a histogram from previously exported buckets, e.g. a
// parsed CSV. Buckets must be contiguous and ascending with non-negative
// counts; percentages are ignored and recomputed from the counts.
func FromBuckets(bs []Bucket) (*Histogram, error) {
	if len(bs) == 0 {
		return nil, fmt.Errorf("no buckets")
	}
	bounds := make([]int64, 0, len(bs)+1)
	counts := make([]int64, 0, len(bs))
	bounds = append(bounds, bs[0].LowerUS)
	var total int64
	for i, b := range bs {
		if b.UpperUS <= b.LowerUS {
			return nil, fmt.Errorf("bucket %d: bounds not ascending (%d >= %d)", i, b.LowerUS, b.UpperUS)
		}
		if i > 0 && b.LowerUS != bs[i-1].UpperUS {
			return nil, fmt.Errorf("bucket %d: gap after %d, starts at %d", i, bs[i-1].UpperUS, b.LowerUS)
		}
		if b.Count < 0 {
			return nil, fmt.Errorf("bucket %d: negative count %d", i, b.Count)
		}
		bounds = append(bounds, b.UpperUS)
		counts = append(counts, b.Count)
		total += b.Count
	}
	return &Histogram{bounds: bounds, counts: counts, total: total}, nil
}

func normalizeBounds(bounds []int64) []int64 {
	seen := make(map[int64]struct{}, len(bounds))
	bs := make([]int64, 0, len(bounds))
	for _, b := range bounds {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		bs = append(bs, b)
	}
	if len(bs) < 2 {
		bs = append(bs[:0], DefaultBounds...)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	return bs
}

// Record counts one latency sample in microseconds.
func (h *Histogram) Record(us int64) {
	idx := sort.Search(len(h.bounds), func(i int) bool { return h.bounds[i] > us }) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(h.counts) {
		idx = len(h.counts) - 1
	}
	h.counts[idx]++
	h.total++
}

// Total returns the number of recorded samples.
func (h *Histogram) Total() int64 { return h.total }

// Buckets returns the current distribution with percentages of total. With
// no samples every percentage is zero.
func (h *Histogram) Buckets() []Bucket {
	out := make([]Bucket, len(h.counts))
	for i, c := range h.counts {
		b := Bucket{LowerUS: h.bounds[i], UpperUS: h.bounds[i+1], Count: c}
		if h.total > 0 {
			b.Percentage = 100 * float64(c) / float64(h.total)
		}
		out[i] = b
	}
	return out
}

// Percentile returns the upper bound of the first bucket whose cumulative
// share reaches p percent, approximating the given percentile from bucketed
// data. It returns 0 when no samples were recorded.
func (h *Histogram) Percentile(p float64) int64 {
	if h.total == 0 {
		return 0
	}
	var cum int64
	for i, c := range h.counts {
		cum += c
		if 100*float64(cum)/float64(h.total) >= p {
			return h.bounds[i+1]
		}
	}
	return h.bounds[len(h.bounds)-1]
}

// Average returns the count-weighted mean of bucket midpoints, or 0 when no
// samples were recorded.
func (h *Histogram) Average() float64 {
	if h.total == 0 {
		return 0
	}
	var sum float64
	for i, c := range h.counts {
		mid := float64(h.bounds[i]+h.bounds[i+1]) / 2
		sum += mid * float64(c)
	}
	return sum / float64(h.total)
}

// Fprint writes the bucket table and summary lines in the report format the
// CLI tools print after a run.
func (h *Histogram) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Latency distribution (%d samples):\n", h.total)
	for _, b := range h.Buckets() {
		fmt.Fprintf(w, "  %7d - %7d us %10d  %6.2f%%\n", b.LowerUS, b.UpperUS, b.Count, b.Percentage)
	}
	fmt.Fprintf(w, "  mean %.1f us | p50 %d us | p95 %d us | p99 %d us\n",
		h.Average(), h.Percentile(50), h.Percentile(95), h.Percentile(99))
}
