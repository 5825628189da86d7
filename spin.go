// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"time"

	"code.hybscloud.com/atomix"
)

// SpinWaitStrategy busy-polls the watched sequence cells with an
// adaptive [SpinWait] back-off between polls.
//
// It gives the lowest wake-up latency of the shipped strategies and
// burns CPU while waiting. Use it when consumers are rarely idle, or
// when a core can be dedicated to each waiting thread.
type SpinWaitStrategy struct{}

// NewSpinWaitStrategy creates a spin wait strategy. The strategy is
// stateless; one instance is still shared per pipeline so that all
// barriers agree on the signalling discipline.
func NewSpinWaitStrategy() *SpinWaitStrategy {
	return &SpinWaitStrategy{}
}

// WaitFor blocks until every cell has reached at least target and
// returns the least-advanced cell value.
func (*SpinWaitStrategy) WaitFor(target Sequence, cells []*atomix.Uint64) Sequence {
	var sw SpinWait
	result := MinimumSequenceAfter(target, cells)
	for Diff(result, target) < 0 {
		sw.Once()
		result = MinimumSequenceAfter(target, cells)
	}
	return result
}

// WaitUntil is WaitFor with an absolute deadline. The clock is only
// consulted once the spinner is past its busy-wait phase, keeping
// clock reads off the fast path. On timeout the returned sequence r
// satisfies Diff(r, target) < 0.
func (*SpinWaitStrategy) WaitUntil(target Sequence, cells []*atomix.Uint64, deadline time.Time) Sequence {
	var sw SpinWait
	result := MinimumSequenceAfter(target, cells)
	for Diff(result, target) < 0 {
		if sw.WillYield() && time.Now().After(deadline) {
			return result
		}
		sw.Once()
		result = MinimumSequenceAfter(target, cells)
	}
	return result
}

// SignalAllWhenBlocking is a no-op: spinning waiters poll the cells
// continuously and need no wake-up.
func (*SpinWaitStrategy) SignalAllWhenBlocking() {}
