package stats

import (
	"math"
	"testing"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	if w.Len() != 3 {
		t.Fatalf("expected len 3, got %d", w.Len())
	}
	got := w.Values()
	want := []float64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWindowNeverExceedsCap(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 100; i++ {
		w.Push(float64(i))
		if w.Len() > w.Cap() {
			t.Fatalf("len %d exceeded cap %d", w.Len(), w.Cap())
		}
	}
	if w.At(0) != 96 || w.At(3) != 99 {
		t.Fatalf("expected retained range 96..99, got %v", w.Values())
	}
}

func TestWindowMeanStd(t *testing.T) {
	w := NewWindow(10)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Push(v)
	}
	if mean := w.Mean(); math.Abs(mean-5) > 1e-12 {
		t.Fatalf("expected mean 5, got %.6f", mean)
	}
	if std := w.Std(); math.Abs(std-2) > 1e-12 {
		t.Fatalf("expected population std 2, got %.6f", std)
	}
}

func TestWindowTail(t *testing.T) {
	w := NewWindow(4)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	tail := w.Tail(2)
	if len(tail) != 2 || tail[0] != 4 || tail[1] != 5 {
		t.Fatalf("expected tail [4 5], got %v", tail)
	}
	if got := w.Tail(10); len(got) != 4 {
		t.Fatalf("expected clamped tail of 4, got %d", len(got))
	}
}

func TestWindowEmpty(t *testing.T) {
	w := NewWindow(5)
	if w.Mean() != 0 || w.Std() != 0 {
		t.Fatalf("expected zero moments on empty window")
	}
	if len(w.Values()) != 0 {
		t.Fatalf("expected no values on empty window")
	}
}
