// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"time"

	"code.hybscloud.com/atomix"
)

// SequenceBarrierGroup waits on a collection of sequence barriers,
// tracking the least-advanced member. A consumer that must not overtake
// several upstream consumers waits on a group of their barriers;
// producers use a group of all registered claim barriers the same way.
//
// Add and AddGroup are setup-only: they must complete before the group
// is shared across goroutines. At least one barrier must be added
// before the group is read.
type SequenceBarrierGroup[W WaitStrategy] struct {
	strategy W
	cells    []*atomix.Uint64
}

// NewSequenceBarrierGroup creates an empty barrier group using the
// given wait strategy.
func NewSequenceBarrierGroup[W WaitStrategy](strategy W) *SequenceBarrierGroup[W] {
	return &SequenceBarrierGroup[W]{strategy: strategy}
}

// Add adds a barrier to the group. The barrier must outlive the group
// and must have been built with the same wait strategy instance.
func (g *SequenceBarrierGroup[W]) Add(b *SequenceBarrier[W]) {
	if any(b.strategy) != any(g.strategy) {
		panic("seqr: barrier and group must share one wait strategy instance")
	}
	g.cells = append(g.cells, &b.lastPublished)
}

// AddGroup adds every barrier currently in another group.
func (g *SequenceBarrierGroup[W]) AddGroup(other *SequenceBarrierGroup[W]) {
	if any(other.strategy) != any(g.strategy) {
		panic("seqr: groups must share one wait strategy instance")
	}
	g.cells = append(g.cells, other.cells...)
}

// Len returns the number of barriers in the group.
func (g *SequenceBarrierGroup[W]) Len() int {
	return len(g.cells)
}

// LastPublished returns the sequence of the least-advanced barrier in
// the group. Panics if the group is empty.
func (g *SequenceBarrierGroup[W]) LastPublished() Sequence {
	if len(g.cells) == 0 {
		panic("seqr: read of empty barrier group")
	}
	return MinimumSequence(g.cells)
}

// WaitFor blocks until every barrier in the group has published at
// least seq and returns the least-advanced published sequence.
// Panics if the group is empty.
func (g *SequenceBarrierGroup[W]) WaitFor(seq Sequence) Sequence {
	if len(g.cells) == 0 {
		panic("seqr: wait on empty barrier group")
	}
	current := MinimumSequenceAfter(seq, g.cells)
	if Diff(current, seq) >= 0 {
		return current
	}
	return g.strategy.WaitFor(seq, g.cells)
}

// WaitForTimeout is WaitFor with a relative timeout. On timeout the
// returned sequence r satisfies Diff(r, seq) < 0.
func (g *SequenceBarrierGroup[W]) WaitForTimeout(seq Sequence, timeout time.Duration) Sequence {
	return g.WaitUntil(seq, time.Now().Add(timeout))
}

// WaitUntil is WaitFor with an absolute deadline. On timeout the
// returned sequence r satisfies Diff(r, seq) < 0.
func (g *SequenceBarrierGroup[W]) WaitUntil(seq Sequence, deadline time.Time) Sequence {
	if len(g.cells) == 0 {
		panic("seqr: wait on empty barrier group")
	}
	current := MinimumSequenceAfter(seq, g.cells)
	if Diff(current, seq) >= 0 {
		return current
	}
	return g.strategy.WaitUntil(seq, g.cells, deadline)
}
