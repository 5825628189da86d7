// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"time"

	"code.hybscloud.com/atomix"
)

// WaitStrategy is the blocking discipline used by sequence barriers and
// claim strategies while a wanted sequence is not yet published.
//
// The cells slice borrows pointers into live barriers for the duration
// of one call; implementations must not retain it. Cell loads that
// satisfy the wait carry acquire ordering, so payload written before
// the corresponding publish is visible after the wait returns.
//
// A single wait strategy instance must be shared by every barrier and
// claim strategy of one pipeline. Two instances are shipped:
// [SpinWaitStrategy] and [BlockingWaitStrategy].
type WaitStrategy interface {
	// WaitFor blocks until every cell has reached at least target and
	// returns the least-advanced cell value.
	WaitFor(target Sequence, cells []*atomix.Uint64) Sequence

	// WaitUntil is WaitFor with an absolute deadline. On timeout it
	// returns a sequence r with Diff(r, target) < 0.
	WaitUntil(target Sequence, cells []*atomix.Uint64, deadline time.Time) Sequence

	// SignalAllWhenBlocking wakes any threads blocked in WaitFor or
	// WaitUntil so they re-check their cells. Publish paths call this
	// after every release-store.
	SignalAllWhenBlocking()
}

// ClaimStrategy is the producer-side surface shared by
// [SingleProducerClaim] and [MultiProducerClaim].
//
// A producer claims one or more contiguous sequences, writes payload to
// the corresponding ring-buffer slots, and publishes. Claims block once
// the producer is a full buffer ahead of the slowest registered claim
// barrier.
type ClaimStrategy interface {
	// BufferSize returns the ring-buffer size the strategy was built
	// for. Always a power of two.
	BufferSize() int

	// ClaimOne claims the next slot, blocking until it is free.
	ClaimOne() Sequence

	// Claim claims up to count contiguous slots, blocking until at
	// least one is free. At most BufferSize slots are returned.
	Claim(count int) SequenceRange

	// TryClaim claims up to count slots without blocking. It reports
	// whether any slot was claimed; on false, r is left unmodified.
	TryClaim(count int, r *SequenceRange) bool

	// TryClaimFor is TryClaim with a relative timeout.
	TryClaimFor(count int, r *SequenceRange, timeout time.Duration) bool

	// TryClaimUntil is TryClaim with an absolute deadline.
	TryClaimUntil(count int, r *SequenceRange, deadline time.Time) bool

	// Publish marks seq as written and readable. For a single-producer
	// strategy seq must be the last sequence of the contiguous run
	// written so far; for a multi-producer strategy each claimed
	// sequence is published individually.
	Publish(seq Sequence)
}

// pad is cache line padding to prevent false sharing. Hot atomic cells
// are padded on both sides.
type pad [64]byte
