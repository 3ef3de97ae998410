package transfer

import (
	"math/bits"
	"time"
)

// Progress tracks one transfer. Moved never exceeds Total.
type Progress struct {
	Moved     uint64
	Total     uint64
	StartTime time.Time
}

func NewProgress(total uint64) *Progress {
	return &Progress{Total: total, StartTime: time.Now()}
}

// Advance records n more bytes, clamped to Total, and returns the new percent.
func (p *Progress) Advance(n int) int {
	if n > 0 {
		p.Moved += uint64(n)
		if p.Moved > p.Total {
			p.Moved = p.Total
		}
	}
	return p.Percent()
}

// Percent is floor(Moved*100/Total). An empty transfer is complete.
func (p *Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	hi, lo := bits.Mul64(p.Moved, 100)
	q, _ := bits.Div64(hi, lo, p.Total)
	return int(q)
}

func (p *Progress) Remaining() uint64 {
	return p.Total - p.Moved
}

func (p *Progress) Complete() bool {
	return p.Moved == p.Total
}

// Speed returns the average rate in bytes/sec since the transfer started.
func (p *Progress) Speed() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Moved) / elapsed
}

// ETA estimates the time left at the average rate so far.
func (p *Progress) ETA() time.Duration {
	speed := p.Speed()
	if speed <= 0 || p.Complete() {
		return 0
	}
	return time.Duration(float64(p.Remaining()) / speed * float64(time.Second))
}
