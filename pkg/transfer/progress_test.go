package transfer

import (
	"math"
	"testing"
)

func TestProgressPercent(t *testing.T) {
	p := NewProgress(1000)
	steps := []struct {
		n    int
		want int
	}{
		{0, 0}, {9, 0}, {1, 1}, {489, 49}, {1, 50}, {499, 99}, {1, 100},
	}
	for i, s := range steps {
		if got := p.Advance(s.n); got != s.want {
			t.Fatalf("step %d: percent %d, want %d", i, got, s.want)
		}
	}
	if !p.Complete() || p.Remaining() != 0 {
		t.Errorf("expected complete, moved=%d", p.Moved)
	}

	// Extra bytes are clamped.
	if got := p.Advance(50); got != 100 || p.Moved != 1000 {
		t.Errorf("overshoot: percent=%d moved=%d", got, p.Moved)
	}
}

func TestProgressLargeAndEmpty(t *testing.T) {
	huge := NewProgress(math.MaxUint64)
	huge.Moved = math.MaxUint64 / 2
	if got := huge.Percent(); got != 49 {
		t.Errorf("half of max: percent %d, want 49", got)
	}

	empty := NewProgress(0)
	if !empty.Complete() || empty.Percent() != 100 {
		t.Errorf("empty transfer: complete=%v percent=%d", empty.Complete(), empty.Percent())
	}
	if empty.ETA() != 0 {
		t.Errorf("empty transfer ETA %v", empty.ETA())
	}
}
