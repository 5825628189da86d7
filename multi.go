// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MultiProducerClaim is a claim strategy for ring buffers with any
// number of concurrent producer goroutines.
//
// Claiming is a single fetch-add on a shared counter, so producers are
// wait-free while the buffer has room. Each producer publishes by
// writing the sequence number itself into published[seq & indexMask];
// a consumer scanning contiguous sequences detects availability by
// equality alone, so producers can publish out of order without
// coordinating with each other.
//
// Consumers wait on the strategy directly with WaitFor/WaitUntil,
// threading through the last sequence they know to be published
// (initially [InitialSequence]).
type MultiProducerClaim[W WaitStrategy] struct {
	bufferSize Sequence
	indexMask  Sequence

	strategy     W
	claimBarrier *SequenceBarrierGroup[W]

	// published[i] holds the most recent sequence published to slot i,
	// initialised to i - bufferSize: each slot starts as if its
	// previous-lap sequence had already been consumed. Between claim
	// and publish the cell still holds seq - bufferSize.
	published []atomix.Uint64

	_             pad
	nextClaimable atomix.Uint64
	_             pad
}

// NewMultiProducerClaim creates a multi-producer claim strategy for a
// ring buffer of the given size. All barriers registered with it must
// use the same wait strategy instance.
//
// Panics if bufferSize is not a positive power of two.
func NewMultiProducerClaim[W WaitStrategy](bufferSize int, strategy W) *MultiProducerClaim[W] {
	if bufferSize <= 0 || bufferSize&(bufferSize-1) != 0 {
		panic("seqr: buffer size must be a power of two")
	}
	s := &MultiProducerClaim[W]{
		bufferSize:   Sequence(bufferSize),
		indexMask:    Sequence(bufferSize - 1),
		strategy:     strategy,
		claimBarrier: NewSequenceBarrierGroup(strategy),
		published:    make([]atomix.Uint64, bufferSize),
	}
	for i := range s.published {
		s.published[i].StoreRelaxed(uint64(Sequence(i) - s.bufferSize))
	}
	return s
}

// BufferSize returns the ring-buffer size the strategy was built for.
func (s *MultiProducerClaim[W]) BufferSize() int {
	return int(s.bufferSize)
}

// AddClaimBarrier registers a consumer-progress barrier that gates
// claiming. Claimed sequences never advance more than BufferSize ahead
// of any registered barrier.
//
// Setup-only: must be called before the strategy is shared across
// goroutines.
func (s *MultiProducerClaim[W]) AddClaimBarrier(b *SequenceBarrier[W]) {
	s.claimBarrier.Add(b)
}

// AddClaimBarrierGroup registers every barrier in a group as a claim
// barrier. Setup-only.
func (s *MultiProducerClaim[W]) AddClaimBarrierGroup(g *SequenceBarrierGroup[W]) {
	s.claimBarrier.AddGroup(g)
}

// ClaimOne claims the next slot, blocking until it is free.
func (s *MultiProducerClaim[W]) ClaimOne() Sequence {
	seq := Sequence(s.nextClaimable.AddAcqRel(1) - 1)
	s.claimBarrier.WaitFor(seq - s.bufferSize)
	return seq
}

// Claim claims up to count contiguous slots, blocking until all of
// them are free. At most BufferSize slots are claimed.
//
// The counter is advanced before the wait, so a blocked Claim still
// reserves its range; other producers keep claiming sequences after it.
func (s *MultiProducerClaim[W]) Claim(count int) SequenceRange {
	count = min(count, int(s.bufferSize))
	first := Sequence(s.nextClaimable.AddAcqRel(uint64(count))) - Sequence(count)
	r := SequenceRange{first: first, size: count}
	s.claimBarrier.WaitFor(r.Last() - s.bufferSize)
	return r
}

// TryClaim claims up to count slots without blocking, reporting whether
// any slot was claimed. On false, r is left unmodified.
//
// The claimable bound is computed from the claim barriers once, before
// the CAS loop; a consumer advancing during retries is not observed
// until the next call. The acquire ordering of the bound's load covers
// the relaxed CAS.
func (s *MultiProducerClaim[W]) TryClaim(count int, r *SequenceRange) bool {
	published := s.claimBarrier.LastPublished() + s.bufferSize
	seq := Sequence(s.nextClaimable.LoadRelaxed())
	sw := spin.Wait{}
	for {
		diff := Diff(published, seq)
		if diff < 0 {
			return false
		}
		n := min(count, int(diff)+1)
		if s.nextClaimable.CompareAndSwapRelaxed(uint64(seq), uint64(seq+Sequence(n))) {
			*r = SequenceRange{first: seq, size: n}
			return true
		}
		sw.Once()
		seq = Sequence(s.nextClaimable.LoadRelaxed())
	}
}

// TryClaimFor is TryClaim with a relative timeout.
func (s *MultiProducerClaim[W]) TryClaimFor(count int, r *SequenceRange, timeout time.Duration) bool {
	return s.TryClaimUntil(count, r, time.Now().Add(timeout))
}

// TryClaimUntil is TryClaim with an absolute deadline.
//
// The claimable bound is refreshed through the claim barriers' timed
// wait only when found insufficient, so the call can overshoot the
// deadline by one wait quantum before reporting failure.
func (s *MultiProducerClaim[W]) TryClaimUntil(count int, r *SequenceRange, deadline time.Time) bool {
	published := s.claimBarrier.LastPublished() + s.bufferSize
	seq := Sequence(s.nextClaimable.LoadRelaxed())
	sw := spin.Wait{}
	for {
		diff := Diff(published, seq)
		if diff < 0 {
			published = s.claimBarrier.WaitUntil(seq-s.bufferSize, deadline) + s.bufferSize
			diff = Diff(published, seq)
			if diff < 0 {
				return false
			}
		}
		n := min(count, int(diff)+1)
		if s.nextClaimable.CompareAndSwapRelaxed(uint64(seq), uint64(seq+Sequence(n))) {
			*r = SequenceRange{first: seq, size: n}
			return true
		}
		sw.Once()
		seq = Sequence(s.nextClaimable.LoadRelaxed())
	}
}

// Publish makes the claimed sequence seq available to consumers, with
// release ordering, and signals the wait strategy. Consumers observe
// seq only once every prior sequence has also been published.
//
// Panics if the slot's cell does not hold seq - BufferSize, as happens
// when seq has already been published. Publishing an unclaimed sequence
// whose cell is still in that state is not detected.
func (s *MultiProducerClaim[W]) Publish(seq Sequence) {
	s.setPublished(seq)
	s.strategy.SignalAllWhenBlocking()
}

// PublishRange publishes every sequence in the claimed range, then
// signals the wait strategy once.
func (s *MultiProducerClaim[W]) PublishRange(r SequenceRange) {
	for i := range r.Size() {
		s.setPublished(r.At(i))
	}
	s.strategy.SignalAllWhenBlocking()
}

// LastPublishedAfter returns the highest sequence such that it and all
// sequences back to lastKnown are published. lastKnown itself must
// already be published; pass [InitialSequence] on the first call.
// Returns lastKnown when nothing further has been published.
func (s *MultiProducerClaim[W]) LastPublishedAfter(lastKnown Sequence) Sequence {
	seq := lastKnown + 1
	for s.isPublished(seq) {
		lastKnown = seq
		seq++
	}
	return lastKnown
}

// WaitFor blocks until target has been published and returns the
// highest contiguously published sequence, which is target or later.
// lastKnown must already be published; pass [InitialSequence] on the
// first call.
//
// Panics if target does not follow lastKnown.
func (s *MultiProducerClaim[W]) WaitFor(target, lastKnown Sequence) Sequence {
	if Diff(target, lastKnown) <= 0 {
		panic("seqr: wait target must follow the last known published sequence")
	}
	for seq := lastKnown + 1; Diff(seq, target) <= 0; seq++ {
		if !s.isPublished(seq) {
			s.strategy.WaitFor(seq, []*atomix.Uint64{&s.published[seq&s.indexMask]})
		}
	}
	return s.LastPublishedAfter(target)
}

// WaitForTimeout is WaitFor with a relative timeout.
func (s *MultiProducerClaim[W]) WaitForTimeout(target, lastKnown Sequence, timeout time.Duration) Sequence {
	return s.WaitUntil(target, lastKnown, time.Now().Add(timeout))
}

// WaitUntil is WaitFor with an absolute deadline. On timeout it returns
// the sequence immediately before the first one found unpublished,
// which satisfies Diff(result, target) < 0.
func (s *MultiProducerClaim[W]) WaitUntil(target, lastKnown Sequence, deadline time.Time) Sequence {
	if Diff(target, lastKnown) <= 0 {
		panic("seqr: wait target must follow the last known published sequence")
	}
	for seq := lastKnown + 1; Diff(seq, target) <= 0; seq++ {
		if !s.isPublished(seq) {
			result := s.strategy.WaitUntil(seq, []*atomix.Uint64{&s.published[seq&s.indexMask]}, deadline)
			if Diff(result, seq) < 0 {
				return seq - 1
			}
		}
	}
	return s.LastPublishedAfter(target)
}

func (s *MultiProducerClaim[W]) isPublished(seq Sequence) bool {
	return Sequence(s.published[seq&s.indexMask].LoadAcquire()) == seq
}

func (s *MultiProducerClaim[W]) setPublished(seq Sequence) {
	cell := &s.published[seq&s.indexMask]
	if Sequence(cell.LoadRelaxed()) != seq-s.bufferSize {
		panic("seqr: publish of unclaimed or already published sequence")
	}
	cell.StoreRelease(uint64(seq))
}
