package decay

import (
	"math"
	"testing"
	"time"
)

func TestFactor_ZeroElapsed(t *testing.T) {
	// WHAT: Zero elapsed time yields exactly 1.
	// WHY: Fresh documents must not be attenuated at all.
	now := time.Now()
	f, err := Factor(now, now, 1.0)
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if f != 1.0 {
		t.Errorf("factor = %f, want 1.0", f)
	}
}

func TestFactor_Monotonic(t *testing.T) {
	// WHAT: The factor strictly decreases as elapsed time grows.
	// WHY: Older content must never outrank newer content on recency alone.
	now := time.Now()
	prev := 2.0
	for _, days := range []int{0, 1, 7, 30, 365} {
		f, err := Factor(now.Add(-time.Duration(days)*24*time.Hour), now, 0.5)
		if err != nil {
			t.Fatalf("Factor: %v", err)
		}
		if f >= prev {
			t.Errorf("factor at %d days = %f, want < %f", days, f, prev)
		}
		if f <= 0 || f > 1 {
			t.Errorf("factor at %d days = %f, want in (0, 1]", days, f)
		}
		prev = f
	}
}

func TestFactor_KnownValues(t *testing.T) {
	// WHAT: 1 day at rate 1.0 halves the score; 400 days leaves ~0.0025.
	// WHY: These are the reference points the search re-ranking relies on.
	now := time.Now()
	f, _ := Factor(now.Add(-24*time.Hour), now, 1.0)
	if math.Abs(f-0.5) > 1e-9 {
		t.Errorf("1 day factor = %f, want 0.5", f)
	}
	f, _ = Factor(now.Add(-400*24*time.Hour), now, 1.0)
	if math.Abs(f-1.0/401.0) > 1e-9 {
		t.Errorf("400 day factor = %f, want %f", f, 1.0/401.0)
	}
}

func TestFactor_FutureReference(t *testing.T) {
	// WHAT: A reference time in the future clamps elapsed to zero.
	// WHY: Clock skew between writer and reader must not boost scores.
	now := time.Now()
	f, err := Factor(now.Add(48*time.Hour), now, 2.0)
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if f != 1.0 {
		t.Errorf("factor = %f, want 1.0", f)
	}
}

func TestFactor_NegativeRate(t *testing.T) {
	// WHAT: Negative rates are rejected.
	// WHY: They would make the factor increase with age or diverge.
	if _, err := Factor(time.Now(), time.Now(), -0.1); err == nil {
		t.Error("expected error for negative rate")
	}
}

func TestFactor_ZeroRate(t *testing.T) {
	// WHAT: Rate zero disables decay entirely.
	// WHY: Callers use rate 0 as an explicit "no decay" setting.
	f, err := Factor(time.Now().Add(-1000*24*time.Hour), time.Now(), 0)
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if f != 1.0 {
		t.Errorf("factor = %f, want 1.0", f)
	}
}
