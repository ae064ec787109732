package task

import (
	"context"
	"math"
	"sync/atomic"
)

// Progress is a completed fraction in [0, 1] that never decreases.
// A nil *Progress is valid and discards updates.
type Progress struct {
	bits atomic.Uint64
}

// Set raises the fraction to f. Values lower than the current fraction
// are ignored and values outside [0, 1] are clamped.
func (p *Progress) Set(f float64) {
	if p == nil || math.IsNaN(f) {
		return
	}
	f = min(max(f, 0), 1)

	for {
		old := p.bits.Load()
		if f <= math.Float64frombits(old) {
			return
		}
		if p.bits.CompareAndSwap(old, math.Float64bits(f)) {
			return
		}
	}
}

// Value returns the current fraction.
func (p *Progress) Value() float64 {
	if p == nil {
		return 0
	}
	return math.Float64frombits(p.bits.Load())
}

type ctxKey int

const progressKey ctxKey = iota + 1

// WithProgress returns a copy of ctx carrying p.
func WithProgress(ctx context.Context, p *Progress) context.Context {
	return context.WithValue(ctx, progressKey, p)
}

// ProgressFrom returns the Progress carried by ctx, or nil.
func ProgressFrom(ctx context.Context) *Progress {
	p, _ := ctx.Value(progressKey).(*Progress)
	return p
}
