package theo

import (
	"math"
	"testing"
)

func TestPrimeTracksHalfSpreadUntilFirstCross(t *testing.T) {
	e := NewEstimator()
	e.Prime(14550, 14500)
	if e.Mu() != 50 {
		t.Fatalf("mu = %v, want 50", e.Mu())
	}

	// Re-primes every cycle while no crossing has been recorded.
	e.Prime(14630, 14600)
	if e.Mu() != 30 {
		t.Fatalf("mu = %v, want 30", e.Mu())
	}

	// First crossing with inventory locks priming out.
	e.Observe(14650, 14600, 14600, 10)
	if e.CrossCount() != 1 {
		t.Fatalf("crossCount = %d, want 1", e.CrossCount())
	}
	muAfterCross := e.Mu()
	e.Prime(14990, 14900)
	if e.Mu() != muAfterCross {
		t.Fatalf("prime after first cross changed mu: %v -> %v", muAfterCross, e.Mu())
	}
}

func TestObserveRequiresFlipAndPosition(t *testing.T) {
	e := NewEstimator()

	// Flip with zero position: no mu update, flag still tracks.
	e.Observe(14700, 14600, 14650, 0)
	if e.CrossCount() != 0 {
		t.Fatal("flat crossing must not update mu")
	}
	if !e.ETFAboveFuture() {
		t.Fatal("flag must track the latest relationship")
	}

	// Same relationship with position: no flip, no update.
	e.Observe(14710, 14600, 14660, 20)
	if e.CrossCount() != 0 {
		t.Fatal("no flip means no update")
	}

	// Flip with position: mu = mean of observed half-spreads.
	e.Observe(14590, 14600, 14550, 20)
	if e.CrossCount() != 1 {
		t.Fatalf("crossCount = %d, want 1", e.CrossCount())
	}
	if e.Mu() != 40 {
		t.Fatalf("mu = %v, want 40", e.Mu())
	}
	if e.ETFAboveFuture() {
		t.Fatal("flag must have flipped back")
	}

	// Second flip averages.
	e.Observe(14700, 14600, 14640, -10)
	if e.CrossCount() != 2 {
		t.Fatalf("crossCount = %d, want 2", e.CrossCount())
	}
	if want := (40.0 + 60.0) / 2; math.Abs(e.Mu()-want) > 1e-12 {
		t.Fatalf("mu = %v, want %v", e.Mu(), want)
	}
}

func TestEqualMidsAreNotAbove(t *testing.T) {
	e := NewEstimator()
	e.Observe(14700, 14600, 14650, 5)
	if !e.ETFAboveFuture() {
		t.Fatal("setup flip failed")
	}
	// Equal mids read as not-above, which is a flip from above.
	e.Observe(14600, 14600, 14550, 5)
	if e.ETFAboveFuture() {
		t.Fatal("equal mids must read as not-above")
	}
	if e.CrossCount() != 2 {
		t.Fatalf("crossCount = %d, want 2", e.CrossCount())
	}
}

func TestStateRoundTrip(t *testing.T) {
	e := NewEstimator()
	e.Prime(14550, 14500)
	e.Observe(14700, 14600, 14650, 10)
	e.Observe(14500, 14600, 14450, 10)

	restored := Restore(e.State())
	if restored.Mu() != e.Mu() || restored.CrossCount() != e.CrossCount() ||
		restored.ETFAboveFuture() != e.ETFAboveFuture() {
		t.Fatalf("restore mismatch: %+v vs %+v", restored.State(), e.State())
	}
}
