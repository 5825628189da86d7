// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import "time"

// SingleProducerClaim is a claim strategy for ring buffers with exactly
// one producer goroutine.
//
// The producer claims slots, writes payload to them, and publishes the
// last written sequence; consumers wait on the strategy's read barrier
// and publish their own progress to registered claim barriers. Because
// there is a single producer, claiming is plain arithmetic on
// producer-local state; the only contended write is the publish itself.
//
// Claim methods must be called from the producer goroutine only.
// AddClaimBarrier is setup-only. The read side (LastPublished, WaitFor
// and variants) is safe for any number of goroutines.
type SingleProducerClaim[W WaitStrategy] struct {
	bufferSize Sequence

	// Producer-local; never read by consumers.
	nextToClaim        Sequence
	lastKnownClaimable Sequence

	claimBarrier *SequenceBarrierGroup[W]
	readBarrier  *SequenceBarrier[W]
}

// NewSingleProducerClaim creates a single-producer claim strategy for a
// ring buffer of the given size. All barriers registered with it must
// use the same wait strategy instance.
//
// Panics if bufferSize is not a positive power of two.
func NewSingleProducerClaim[W WaitStrategy](bufferSize int, strategy W) *SingleProducerClaim[W] {
	if bufferSize <= 0 || bufferSize&(bufferSize-1) != 0 {
		panic("seqr: buffer size must be a power of two")
	}
	return &SingleProducerClaim[W]{
		bufferSize:         Sequence(bufferSize),
		lastKnownClaimable: InitialSequence + Sequence(bufferSize),
		claimBarrier:       NewSequenceBarrierGroup(strategy),
		readBarrier:        NewSequenceBarrier(strategy),
	}
}

// BufferSize returns the ring-buffer size the strategy was built for.
func (s *SingleProducerClaim[W]) BufferSize() int {
	return int(s.bufferSize)
}

// AddClaimBarrier registers a consumer-progress barrier that gates
// claiming. The producer will never claim a sequence more than
// BufferSize ahead of the least-advanced registered barrier.
//
// Setup-only: must be called before the strategy is shared across
// goroutines.
func (s *SingleProducerClaim[W]) AddClaimBarrier(b *SequenceBarrier[W]) {
	s.claimBarrier.Add(b)
	s.lastKnownClaimable = s.claimBarrier.LastPublished() + s.bufferSize
}

// AddClaimBarrierGroup registers every barrier in a group as a claim
// barrier. Setup-only.
func (s *SingleProducerClaim[W]) AddClaimBarrierGroup(g *SequenceBarrierGroup[W]) {
	s.claimBarrier.AddGroup(g)
	s.lastKnownClaimable = s.claimBarrier.LastPublished() + s.bufferSize
}

// ClaimOne claims the next slot, blocking until it is free.
func (s *SingleProducerClaim[W]) ClaimOne() Sequence {
	return s.Claim(1).First()
}

// Claim claims up to count contiguous slots, blocking until at least
// one is free. The returned range holds at least one and at most
// BufferSize sequences.
func (s *SingleProducerClaim[W]) Claim(count int) SequenceRange {
	var r SequenceRange
	if s.TryClaim(count, &r) {
		return r
	}

	claimable := s.claimBarrier.WaitFor(s.nextToClaim-s.bufferSize) + s.bufferSize
	diff := Diff(claimable, s.nextToClaim)

	count = min(count, int(diff)+1)
	r = SequenceRange{first: s.nextToClaim, size: count}
	s.nextToClaim += Sequence(count)
	s.lastKnownClaimable = claimable
	return r
}

// TryClaim claims up to count slots without blocking, reporting whether
// any slot was claimed. On false, r is left unmodified.
//
// The strategy caches the last claimable sequence it computed from the
// claim barriers, so the common case claims without touching shared
// cells; the barriers are re-read only when the cache is exhausted.
func (s *SingleProducerClaim[W]) TryClaim(count int, r *SequenceRange) bool {
	diff := Diff(s.lastKnownClaimable, s.nextToClaim)
	if diff < 0 {
		seq := s.claimBarrier.LastPublished() + s.bufferSize
		diff = Diff(seq, s.nextToClaim)
		if diff < 0 {
			// Leave the stale cache in place: it already records that
			// the barriers must be checked again next time.
			return false
		}
		s.lastKnownClaimable = seq
	}
	count = min(count, int(diff)+1)
	*r = SequenceRange{first: s.nextToClaim, size: count}
	s.nextToClaim += Sequence(count)
	return true
}

// TryClaimFor is TryClaim with a relative timeout.
func (s *SingleProducerClaim[W]) TryClaimFor(count int, r *SequenceRange, timeout time.Duration) bool {
	if s.TryClaim(count, r) {
		return true
	}
	return s.claimUntil(count, r, time.Now().Add(timeout))
}

// TryClaimUntil is TryClaim with an absolute deadline.
func (s *SingleProducerClaim[W]) TryClaimUntil(count int, r *SequenceRange, deadline time.Time) bool {
	if s.TryClaim(count, r) {
		return true
	}
	return s.claimUntil(count, r, deadline)
}

func (s *SingleProducerClaim[W]) claimUntil(count int, r *SequenceRange, deadline time.Time) bool {
	claimable := s.claimBarrier.WaitUntil(s.nextToClaim-s.bufferSize, deadline) + s.bufferSize
	diff := Diff(claimable, s.nextToClaim)
	if diff < 0 {
		return false
	}

	count = min(count, int(diff)+1)
	*r = SequenceRange{first: s.nextToClaim, size: count}
	s.nextToClaim += Sequence(count)
	s.lastKnownClaimable = claimable
	return true
}

// Publish makes seq and every prior sequence available to consumers,
// with release ordering. seq must be the last sequence of the
// contiguous run the producer has written so far.
func (s *SingleProducerClaim[W]) Publish(seq Sequence) {
	s.readBarrier.Publish(seq)
}

// LastPublished returns the sequence last published by the producer.
func (s *SingleProducerClaim[W]) LastPublished() Sequence {
	return s.readBarrier.LastPublished()
}

// WaitFor blocks until seq has been published and returns the
// last-published sequence, which may be later than seq.
func (s *SingleProducerClaim[W]) WaitFor(seq Sequence) Sequence {
	return s.readBarrier.WaitFor(seq)
}

// WaitForTimeout is WaitFor with a relative timeout. On timeout the
// returned sequence r satisfies Diff(r, seq) < 0.
func (s *SingleProducerClaim[W]) WaitForTimeout(seq Sequence, timeout time.Duration) Sequence {
	return s.readBarrier.WaitForTimeout(seq, timeout)
}

// WaitUntil is WaitFor with an absolute deadline.
func (s *SingleProducerClaim[W]) WaitUntil(seq Sequence, deadline time.Time) Sequence {
	return s.readBarrier.WaitUntil(seq, deadline)
}
