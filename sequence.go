// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import "code.hybscloud.com/atomix"

// Sequence identifies an item added to a ring buffer. The first item
// claimed always has sequence 0, the second 1, and so on. Sequences
// wrap around to zero on overflow, so ordering comparisons must use
// [Diff] rather than < on the raw values.
type Sequence uint64

// InitialSequence is the published value of a fresh sequence barrier:
// the sequence immediately preceding zero, so that the first sequence
// to be published is 0.
const InitialSequence = ^Sequence(0)

// Diff returns the signed difference a - b.
//
// The result is negative if a precedes b, zero if they are equal and
// positive if b precedes a. This is the only ordering relation that
// stays correct across sequence wrap-around; it assumes no two live
// sequences are ever more than 2⁶²-1 apart.
func Diff(a, b Sequence) int64 {
	return int64(a - b)
}

// MinimumSequence returns the least-advanced sequence in cells, using
// the first cell's value as the wrap origin. Every cell is loaded with
// acquire ordering.
//
// Panics if cells is empty.
func MinimumSequence(cells []*atomix.Uint64) Sequence {
	if len(cells) == 0 {
		panic("seqr: minimum of empty sequence set")
	}
	minimum := Sequence(cells[0].LoadAcquire())
	for _, cell := range cells[1:] {
		seq := Sequence(cell.LoadAcquire())
		if Diff(seq, minimum) < 0 {
			minimum = seq
		}
	}
	return minimum
}

// MinimumSequenceAfter returns the least-advanced sequence in cells,
// short-circuiting as soon as any cell is found to precede target.
//
// If the result r satisfies Diff(r, target) >= 0 then every cell was
// loaded with acquire ordering and the result is the true minimum.
// Otherwise the scan stopped early: r is some cell value preceding
// target and the loads must not be relied on for synchronisation.
//
// Panics if cells is empty.
func MinimumSequenceAfter(target Sequence, cells []*atomix.Uint64) Sequence {
	if len(cells) == 0 {
		panic("seqr: minimum of empty sequence set")
	}
	minDelta := Diff(Sequence(cells[0].LoadAcquire()), target)
	for i := 1; i < len(cells) && minDelta >= 0; i++ {
		delta := Diff(Sequence(cells[i].LoadAcquire()), target)
		if delta < minDelta {
			minDelta = delta
		}
	}
	return target + Sequence(minDelta)
}

// SequenceRange is a contiguous range of sequence numbers. The range
// may wrap around the end of the sequence space.
type SequenceRange struct {
	first Sequence
	size  int
}

// NewSequenceRange returns the range of size sequences starting at
// first.
func NewSequenceRange(first Sequence, size int) SequenceRange {
	return SequenceRange{first: first, size: size}
}

// Size returns the number of sequences in the range.
func (r SequenceRange) Size() int { return r.size }

// First returns the first sequence in the range.
func (r SequenceRange) First() Sequence { return r.first }

// Last returns the last sequence in the range.
func (r SequenceRange) Last() Sequence { return r.End() - 1 }

// End returns one past the last sequence in the range.
func (r SequenceRange) End() Sequence { return r.first + Sequence(r.size) }

// At returns the i-th sequence in the range.
func (r SequenceRange) At(i int) Sequence { return r.first + Sequence(i) }
