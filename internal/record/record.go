// Package record persists simulation output: CSV exports of the signal log
// and latency histogram, plus an append-only JSONL signal journal.
package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"ticksim-go/internal/latency"
	"ticksim-go/internal/market"
)

var (
	signalHeader    = []string{"timestamp", "signal_id", "type", "primary_symbol", "secondary_symbol", "signal_strength", "confidence", "latency_us"}
	histogramHeader = []string{"lower_bound_us", "upper_bound_us", "count", "percentage"}
)

// WriteSignalsCSV writes the signal log in insertion order. Timestamps are
// epoch milliseconds and signal ids are assigned 1-based from position.
func WriteSignalsCSV(path string, signals []market.Signal) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(signalHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, sig := range signals {
		row := []string{
			strconv.FormatInt(sig.Ts.UnixMilli(), 10),
			strconv.Itoa(i + 1),
			sig.Kind.String(),
			sig.Symbol,
			sig.Secondary,
			strconv.FormatFloat(sig.Strength, 'f', 4, 64),
			strconv.FormatFloat(sig.Confidence, 'f', 4, 64),
			strconv.FormatInt(sig.LatencyUS, 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write signal %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}

// WriteHistogramCSV writes one row per latency bucket.
func WriteHistogramCSV(path string, h *latency.Histogram) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(histogramHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range h.Buckets() {
		row := []string{
			strconv.FormatInt(b.LowerUS, 10),
			strconv.FormatInt(b.UpperUS, 10),
			strconv.FormatInt(b.Count, 10),
			strconv.FormatFloat(b.Percentage, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write bucket [%d,%d): %w", b.LowerUS, b.UpperUS, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}

// ReadSignalsCSV parses a signals export back into signals. The signal_id
// column is positional and dropped on read.
func ReadSignalsCSV(path string) ([]market.Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 || len(rows[0]) != len(signalHeader) || rows[0][0] != signalHeader[0] {
		return nil, fmt.Errorf("%s: not a signals export", path)
	}
	signals := make([]market.Signal, 0, len(rows)-1)
	for i, row := range rows[1:] {
		sig, err := parseSignalRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

func parseSignalRow(row []string) (market.Signal, error) {
	var sig market.Signal
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return sig, fmt.Errorf("timestamp: %w", err)
	}
	kind, err := market.ParseKind(row[2])
	if err != nil {
		return sig, err
	}
	strength, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return sig, fmt.Errorf("strength: %w", err)
	}
	confidence, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return sig, fmt.Errorf("confidence: %w", err)
	}
	lat, err := strconv.ParseInt(row[7], 10, 64)
	if err != nil {
		return sig, fmt.Errorf("latency: %w", err)
	}
	return market.Signal{
		Kind:       kind,
		Symbol:     row[3],
		Secondary:  row[4],
		Strength:   strength,
		Confidence: confidence,
		Ts:         time.UnixMilli(ms),
		LatencyUS:  lat,
	}, nil
}

// ReadHistogramCSV parses a histogram export back into buckets, suitable for
// latency.FromBuckets.
func ReadHistogramCSV(path string) ([]latency.Bucket, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 || len(rows[0]) != len(histogramHeader) || rows[0][0] != histogramHeader[0] {
		return nil, fmt.Errorf("%s: not a latency histogram export", path)
	}
	buckets := make([]latency.Bucket, 0, len(rows)-1)
	for i, row := range rows[1:] {
		b, err := parseBucketRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func parseBucketRow(row []string) (latency.Bucket, error) {
	var b latency.Bucket
	lower, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return b, fmt.Errorf("lower bound: %w", err)
	}
	upper, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return b, fmt.Errorf("upper bound: %w", err)
	}
	count, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return b, fmt.Errorf("count: %w", err)
	}
	pct, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return b, fmt.Errorf("percentage: %w", err)
	}
	return latency.Bucket{LowerUS: lower, UpperUS: upper, Count: count, Percentage: pct}, nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return file, nil
}

type journalLine struct {
	TsMS       int64   `json:"ts_ms"`
	Type       string  `json:"type"`
	Symbol     string  `json:"primary_symbol"`
	Secondary  string  `json:"secondary_symbol,omitempty"`
	Strength   float64 `json:"signal_strength"`
	Confidence float64 `json:"confidence"`
	LatencyUS  int64   `json:"latency_us"`
}

// JSONLRecorder appends signals as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a single signal to the underlying JSONL file.
func (r *JSONLRecorder) Record(sig market.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(journalLine{
		TsMS:       sig.Ts.UnixMilli(),
		Type:       sig.Kind.String(),
		Symbol:     sig.Symbol,
		Secondary:  sig.Secondary,
		Strength:   sig.Strength,
		Confidence: sig.Confidence,
		LatencyUS:  sig.LatencyUS,
	})
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
