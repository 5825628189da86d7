// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package seqr provides the sequencing substrate for bounded
// single-writer and multi-writer ring-buffer pipelines.
//
// The package is organised around 64-bit [Sequence] numbers. Producers
// claim contiguous sequence ranges from a claim strategy, write their
// payload into a caller-owned ring buffer at the claimed slots, and
// publish. Consumers wait for sequences to become published, read the
// slots, and publish their own progress onto a [SequenceBarrier] that
// the producer uses as a claim barrier. Claim barriers bound how far a
// producer may run ahead of its slowest consumer: never more than the
// buffer size.
//
// # Components
//
//   - [SequenceBarrier]: one published sequence cell, one writer, any
//     number of waiting readers.
//   - [SequenceBarrierGroup]: waits on the least-advanced of a set of
//     barriers.
//   - [SingleProducerClaim]: claim strategy for exactly one producer
//     goroutine. Claims are plain arithmetic; no contended writes
//     besides the publish itself.
//   - [MultiProducerClaim]: claim strategy for any number of producer
//     goroutines. Claiming is a single fetch-add; publication is
//     per-slot and may complete out of order.
//   - [SpinWaitStrategy] and [BlockingWaitStrategy]: the two blocking
//     disciplines used by barriers and claim strategies while a wanted
//     sequence is not yet published.
//   - [RingBuffer]: the trivial power-of-two storage collaborator.
//     The sequencing types never touch payload bytes.
//
// # Quick Start
//
// Unicast, one producer and one consumer:
//
//	ws := seqr.NewSpinWaitStrategy()
//	claim := seqr.NewSingleProducerClaim(1024, ws)
//	consumed := seqr.NewSequenceBarrier(ws)
//	claim.AddClaimBarrier(consumed)
//	ring := seqr.NewRingBuffer[Event](1024)
//
//	// Producer goroutine
//	seq := claim.ClaimOne()
//	*ring.At(seq) = ev
//	claim.Publish(seq)
//
//	// Consumer goroutine
//	next := seqr.Sequence(0)
//	avail := claim.WaitFor(next)
//	for ; seqr.Diff(next, avail) <= 0; next++ {
//	    handle(*ring.At(next))
//	}
//	consumed.Publish(avail)
//
// With multiple producers, use [MultiProducerClaim]; the consumer then
// waits on the claim strategy itself, which tracks per-slot
// publication:
//
//	claim := seqr.NewMultiProducerClaim(1024, ws)
//	...
//	avail := claim.WaitFor(next, lastKnown)
//
// # Batching
//
// Claiming and publishing ranges amortises the synchronisation cost:
//
//	r := claim.Claim(64)
//	for i := range r.Size() {
//	    *ring.At(r.At(i)) = events[i]
//	}
//	claim.Publish(r.Last())     // single producer: publish the last
//	claim.PublishRange(r)       // multiple producers: publish per slot
//
// # Multicast and pipelines
//
// Register one claim barrier per independent consumer; the producer is
// gated on the slowest. A downstream pipeline stage registers its
// barrier with the producer through a [SequenceBarrierGroup] so that
// slots are recycled only when the whole pipeline is done with them.
// All barrier registration is setup-only and must finish before the
// strategy is shared across goroutines.
//
// # Wait strategies
//
// All barriers and claim strategies of one pipeline must share a single
// long-lived wait strategy instance; mixing instances loses wakeups and
// panics where detectable. [SpinWaitStrategy] busy-polls with an
// adaptive [SpinWait] back-off and gives the lowest latency at the cost
// of CPU. [BlockingWaitStrategy] parks waiters on a mutex-guarded
// broadcast channel and suits pipelines that are idle for long
// stretches.
//
// Timed waits never return an error: a wait that times out returns a
// sequence r with Diff(r, wanted) < 0, and timed claims return false.
// Callers must check.
//
// # Sequence arithmetic
//
// Sequence numbers wrap modulo 2⁶⁴. All ordering comparisons must go
// through [Diff], which reinterprets the unsigned difference as signed;
// a < b on raw values is wrong once sequences wrap. The working window
// between any two live sequences must stay below 2⁶².
//
// # Race Detection
//
// Go's race detector cannot observe the happens-before edges that the
// published sequence cells establish through acquire/release atomics on
// separate variables, and reports false positives on payload access.
// Concurrency tests that exercise those paths are skipped under the
// race detector via the RaceEnabled constant.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering and [code.hybscloud.com/spin] for CPU
// pause instructions and short CAS-retry back-off.
package seqr
