// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// BlockingWaitStrategy parks waiting threads until a publisher signals
// progress, trading wake-up latency for idle CPU.
//
// Waiters block on a broadcast channel guarded by a mutex; every
// signal wakes all currently blocked waiters, each of which re-checks
// its own cells. SignalAllWhenBlocking takes the mutex before
// broadcasting, so a publish that lands between a waiter's cell check
// and its park cannot be lost.
//
// The zero value is ready to use.
type BlockingWaitStrategy struct {
	mu sync.Mutex
	// Closed and discarded on every signal; recreated lazily by the
	// next waiter.
	wake chan struct{}
}

// NewBlockingWaitStrategy creates a blocking wait strategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	return &BlockingWaitStrategy{}
}

// WaitFor blocks until every cell has reached at least target and
// returns the least-advanced cell value.
func (w *BlockingWaitStrategy) WaitFor(target Sequence, cells []*atomix.Uint64) Sequence {
	for {
		w.mu.Lock()
		result := MinimumSequenceAfter(target, cells)
		if Diff(result, target) >= 0 {
			w.mu.Unlock()
			return result
		}
		wake := w.wakeLocked()
		w.mu.Unlock()
		<-wake
	}
}

// WaitUntil is WaitFor with an absolute deadline. On timeout it
// returns the current least-advanced value, which satisfies
// Diff(result, target) < 0.
func (w *BlockingWaitStrategy) WaitUntil(target Sequence, cells []*atomix.Uint64, deadline time.Time) Sequence {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	for {
		w.mu.Lock()
		result := MinimumSequenceAfter(target, cells)
		if Diff(result, target) >= 0 {
			w.mu.Unlock()
			return result
		}
		wake := w.wakeLocked()
		w.mu.Unlock()
		select {
		case <-wake:
		case <-timer.C:
			return MinimumSequenceAfter(target, cells)
		}
	}
}

// SignalAllWhenBlocking wakes every blocked waiter. The mutex is held
// across the broadcast so that no waiter can park against a channel
// that has already been signalled.
func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	if w.wake != nil {
		close(w.wake)
		w.wake = nil
	}
	w.mu.Unlock()
}

func (w *BlockingWaitStrategy) wakeLocked() chan struct{} {
	if w.wake == nil {
		w.wake = make(chan struct{})
	}
	return w.wake
}
