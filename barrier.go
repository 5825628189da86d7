// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"time"

	"code.hybscloud.com/atomix"
)

// SequenceBarrier holds a published sequence number that one thread
// writes and any number of threads wait on. Publishing a sequence
// declares that it and every prior sequence are available downstream.
//
// The barrier starts at [InitialSequence], so the first sequence to be
// published is 0. Only a single thread may call Publish, and it must
// publish non-decreasing sequences.
//
// The type parameter fixes the wait strategy at compile time; all
// barriers of one pipeline must be built with the same strategy
// instance.
type SequenceBarrier[W WaitStrategy] struct {
	strategy W
	cells    []*atomix.Uint64 // 1-element view of lastPublished

	_             pad
	lastPublished atomix.Uint64
	_             pad
}

// NewSequenceBarrier creates a sequence barrier using the given wait
// strategy. The barrier keeps the strategy for its whole lifetime.
func NewSequenceBarrier[W WaitStrategy](strategy W) *SequenceBarrier[W] {
	b := &SequenceBarrier[W]{strategy: strategy}
	b.lastPublished.StoreRelaxed(uint64(InitialSequence))
	b.cells = []*atomix.Uint64{&b.lastPublished}
	return b
}

// LastPublished returns the sequence last published to this barrier,
// with acquire ordering.
func (b *SequenceBarrier[W]) LastPublished() Sequence {
	return Sequence(b.lastPublished.LoadAcquire())
}

// Publish makes seq and all prior sequences visible to waiters, with
// release ordering, and signals the wait strategy.
func (b *SequenceBarrier[W]) Publish(seq Sequence) {
	b.lastPublished.StoreRelease(uint64(seq))
	b.strategy.SignalAllWhenBlocking()
}

// WaitFor blocks until seq has been published and returns the
// last-published sequence, which may be later than seq.
func (b *SequenceBarrier[W]) WaitFor(seq Sequence) Sequence {
	if current := b.LastPublished(); Diff(current, seq) >= 0 {
		return current
	}
	return b.strategy.WaitFor(seq, b.cells)
}

// WaitForTimeout is WaitFor with a relative timeout. On timeout the
// returned sequence r satisfies Diff(r, seq) < 0.
func (b *SequenceBarrier[W]) WaitForTimeout(seq Sequence, timeout time.Duration) Sequence {
	return b.WaitUntil(seq, time.Now().Add(timeout))
}

// WaitUntil is WaitFor with an absolute deadline. On timeout the
// returned sequence r satisfies Diff(r, seq) < 0.
func (b *SequenceBarrier[W]) WaitUntil(seq Sequence, deadline time.Time) Sequence {
	if current := b.LastPublished(); Diff(current, seq) >= 0 {
		return current
	}
	return b.strategy.WaitUntil(seq, b.cells, deadline)
}
