package stats

import (
	"math"
	"testing"
)

func TestTrackerDefaultsUntilSecondSample(t *testing.T) {
	tracker := NewTracker(100)
	tracker.Update("AAPL", 250, 5000)

	snap, ok := tracker.Snapshot("AAPL")
	if !ok {
		t.Fatalf("expected snapshot after first update")
	}
	if snap.Samples != 1 {
		t.Fatalf("expected 1 sample, got %d", snap.Samples)
	}
	if snap.PriceMean != 100.0 || snap.PriceStd != 1.0 {
		t.Fatalf("expected price defaults 100/1, got %.2f/%.2f", snap.PriceMean, snap.PriceStd)
	}
	if snap.VolumeMean != 1000.0 || snap.VolumeStd != 200.0 {
		t.Fatalf("expected volume defaults 1000/200, got %.2f/%.2f", snap.VolumeMean, snap.VolumeStd)
	}
}

func TestTrackerRecomputesFromWindowContents(t *testing.T) {
	tracker := NewTracker(100)
	tracker.Update("MSFT", 10, 1)
	tracker.Update("MSFT", 20, 2)
	tracker.Update("MSFT", 30, 3)

	snap, _ := tracker.Snapshot("MSFT")
	if math.Abs(snap.PriceMean-20) > 1e-12 {
		t.Fatalf("expected price mean 20, got %.6f", snap.PriceMean)
	}
	wantStd := math.Sqrt(200.0 / 3.0)
	if math.Abs(snap.PriceStd-wantStd) > 1e-12 {
		t.Fatalf("expected price std %.6f, got %.6f", wantStd, snap.PriceStd)
	}
	if math.Abs(snap.VolumeMean-2) > 1e-12 {
		t.Fatalf("expected volume mean 2, got %.6f", snap.VolumeMean)
	}
}

func TestTrackerCapsWindow(t *testing.T) {
	tracker := NewTracker(5)
	for i := 1; i <= 8; i++ {
		tracker.Update("TSLA", float64(i), 100)
	}
	snap, _ := tracker.Snapshot("TSLA")
	if snap.Samples != 5 {
		t.Fatalf("expected window capped at 5, got %d", snap.Samples)
	}
	// Retained samples are 4..8.
	if math.Abs(snap.PriceMean-6) > 1e-12 {
		t.Fatalf("expected mean of retained samples 6, got %.6f", snap.PriceMean)
	}
}

func TestTrackerUnknownSymbol(t *testing.T) {
	tracker := NewTracker(100)
	if _, ok := tracker.Snapshot("GOOGL"); ok {
		t.Fatalf("expected no snapshot for untracked symbol")
	}
}

func TestTrackerSymbolsIndependent(t *testing.T) {
	tracker := NewTracker(100)
	tracker.Update("AAPL", 10, 1)
	tracker.Update("AAPL", 12, 1)
	tracker.Update("MSFT", 300, 1)
	tracker.Update("MSFT", 302, 1)

	a, _ := tracker.Snapshot("AAPL")
	m, _ := tracker.Snapshot("MSFT")
	if math.Abs(a.PriceMean-11) > 1e-12 {
		t.Fatalf("expected AAPL mean 11, got %.6f", a.PriceMean)
	}
	if math.Abs(m.PriceMean-301) > 1e-12 {
		t.Fatalf("expected MSFT mean 301, got %.6f", m.PriceMean)
	}
}
