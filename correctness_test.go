// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/seqr"
)

// =============================================================================
// End-to-End Scenarios
// =============================================================================

// runUnicastSingle drives one producer and one consumer through a
// single-producer claim strategy and returns the consumer's sum.
func runUnicastSingle[W seqr.WaitStrategy](t *testing.T, ws W, items, bufferSize int) uint64 {
	t.Helper()

	claim := seqr.NewSingleProducerClaim(bufferSize, ws)
	consumed := seqr.NewSequenceBarrier(ws)
	claim.AddClaimBarrier(consumed)
	ring := seqr.NewRingBuffer[uint64](bufferSize)

	var sum uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		next := seqr.Sequence(0)
		for count := 0; count < items; {
			avail := claim.WaitFor(next)
			for ; seqr.Diff(next, avail) <= 0; next++ {
				sum += *ring.At(next)
				count++
			}
			consumed.Publish(avail)
		}
	}()

	for i := range items {
		seq := claim.ClaimOne()
		*ring.At(seq) = uint64(i)
		claim.Publish(seq)
	}
	wg.Wait()
	return sum
}

// runUnicastMulti is runUnicastSingle on a multi-producer claim
// strategy, still with one producer goroutine.
func runUnicastMulti[W seqr.WaitStrategy](t *testing.T, ws W, items, bufferSize int) uint64 {
	t.Helper()

	claim := seqr.NewMultiProducerClaim(bufferSize, ws)
	consumed := seqr.NewSequenceBarrier(ws)
	claim.AddClaimBarrier(consumed)
	ring := seqr.NewRingBuffer[uint64](bufferSize)

	var sum uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		next := seqr.Sequence(0)
		lastKnown := seqr.InitialSequence
		for count := 0; count < items; {
			avail := claim.WaitFor(next, lastKnown)
			for ; seqr.Diff(next, avail) <= 0; next++ {
				sum += *ring.At(next)
				count++
			}
			lastKnown = avail
			consumed.Publish(avail)
		}
	}()

	for i := range items {
		seq := claim.ClaimOne()
		*ring.At(seq) = uint64(i)
		claim.Publish(seq)
	}
	wg.Wait()
	return sum
}

// TestUnicastSum moves 0..999 through an 8-slot buffer with every
// combination of claim and wait strategy.
func TestUnicastSum(t *testing.T) {
	if seqr.RaceEnabled {
		t.Skip("skip: payload synchronisation is invisible to the race detector")
	}
	const items, want = 1000, 499500

	t.Run("SingleSpin", func(t *testing.T) {
		if got := runUnicastSingle(t, seqr.NewSpinWaitStrategy(), items, 8); got != want {
			t.Fatalf("sum: got %d, want %d", got, want)
		}
	})
	t.Run("SingleBlocking", func(t *testing.T) {
		if got := runUnicastSingle(t, seqr.NewBlockingWaitStrategy(), items, 8); got != want {
			t.Fatalf("sum: got %d, want %d", got, want)
		}
	})
	t.Run("MultiSpin", func(t *testing.T) {
		if got := runUnicastMulti(t, seqr.NewSpinWaitStrategy(), items, 8); got != want {
			t.Fatalf("sum: got %d, want %d", got, want)
		}
	})
	t.Run("MultiBlocking", func(t *testing.T) {
		if got := runUnicastMulti(t, seqr.NewBlockingWaitStrategy(), items, 8); got != want {
			t.Fatalf("sum: got %d, want %d", got, want)
		}
	})
}

// TestMulticastSums fans one producer out to three independent
// consumers, each registered as its own claim barrier. Every consumer
// sees every item.
func TestMulticastSums(t *testing.T) {
	if seqr.RaceEnabled {
		t.Skip("skip: payload synchronisation is invisible to the race detector")
	}
	const items = 100000
	const bufferSize = 1024
	const want = uint64(4999950000)

	ws := seqr.NewSpinWaitStrategy()
	claim := seqr.NewSingleProducerClaim(bufferSize, ws)
	ring := seqr.NewRingBuffer[uint64](bufferSize)

	const consumers = 3
	sums := make([]uint64, consumers)
	var wg sync.WaitGroup
	for c := range consumers {
		consumed := seqr.NewSequenceBarrier(ws)
		claim.AddClaimBarrier(consumed)
		wg.Add(1)
		go func(c int, consumed *seqr.SequenceBarrier[*seqr.SpinWaitStrategy]) {
			defer wg.Done()
			next := seqr.Sequence(0)
			for count := 0; count < items; {
				avail := claim.WaitFor(next)
				for ; seqr.Diff(next, avail) <= 0; next++ {
					sums[c] += *ring.At(next)
					count++
				}
				consumed.Publish(avail)
			}
		}(c, consumed)
	}

	for i := range items {
		seq := claim.ClaimOne()
		*ring.At(seq) = uint64(i)
		claim.Publish(seq)
	}
	wg.Wait()

	for c, sum := range sums {
		if sum != want {
			t.Fatalf("consumer %d sum: got %d, want %d", c, sum, want)
		}
	}
}

// TestFanInSum merges three producers into one consumer through a
// multi-producer claim strategy.
func TestFanInSum(t *testing.T) {
	if seqr.RaceEnabled {
		t.Skip("skip: payload synchronisation is invisible to the race detector")
	}
	const producers = 3
	const itemsPerProducer = 10000
	const want = uint64(149985000) // 3 * sum(0..9999)

	ws := seqr.NewSpinWaitStrategy()
	claim := seqr.NewMultiProducerClaim(1024, ws)
	consumed := seqr.NewSequenceBarrier(ws)
	claim.AddClaimBarrier(consumed)
	ring := seqr.NewRingBuffer[uint64](1024)

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range itemsPerProducer {
				seq := claim.ClaimOne()
				*ring.At(seq) = uint64(i)
				claim.Publish(seq)
			}
		}()
	}

	var sum uint64
	next := seqr.Sequence(0)
	lastKnown := seqr.InitialSequence
	for count := 0; count < producers*itemsPerProducer; {
		avail := claim.WaitFor(next, lastKnown)
		for ; seqr.Diff(next, avail) <= 0; next++ {
			sum += *ring.At(next)
			count++
		}
		lastKnown = avail
		consumed.Publish(avail)
	}
	wg.Wait()

	if sum != want {
		t.Fatalf("sum: got %d, want %d", sum, want)
	}
}

// TestPipeline chains producer → doubling stage → summing stage over
// one ring. The final stage's barrier gates the producer through a
// barrier group, so slots are recycled only once the whole pipeline is
// done with them.
func TestPipeline(t *testing.T) {
	if seqr.RaceEnabled {
		t.Skip("skip: payload synchronisation is invisible to the race detector")
	}
	const items = 100
	const bufferSize = 16
	const want = uint64(9900) // 2 * sum(0..99)

	type slot struct {
		in      uint64
		doubled uint64
	}

	ws := seqr.NewSpinWaitStrategy()
	claim := seqr.NewSingleProducerClaim(bufferSize, ws)
	ring := seqr.NewRingBuffer[slot](bufferSize)

	stageA := seqr.NewSequenceBarrier(ws)
	stageB := seqr.NewSequenceBarrier(ws)
	tail := seqr.NewSequenceBarrierGroup(ws)
	tail.Add(stageB)
	claim.AddClaimBarrierGroup(tail)

	var wg sync.WaitGroup

	// Stage A doubles each input in place.
	wg.Add(1)
	go func() {
		defer wg.Done()
		next := seqr.Sequence(0)
		for count := 0; count < items; {
			avail := claim.WaitFor(next)
			for ; seqr.Diff(next, avail) <= 0; next++ {
				s := ring.At(next)
				s.doubled = 2 * s.in
				count++
			}
			stageA.Publish(avail)
		}
	}()

	// Stage B sums the doubled values, gated on stage A.
	var sum uint64
	wg.Add(1)
	go func() {
		defer wg.Done()
		next := seqr.Sequence(0)
		for count := 0; count < items; {
			avail := stageA.WaitFor(next)
			for ; seqr.Diff(next, avail) <= 0; next++ {
				sum += ring.At(next).doubled
				count++
			}
			stageB.Publish(avail)
		}
	}()

	for i := range items {
		seq := claim.ClaimOne()
		ring.At(seq).in = uint64(i)
		claim.Publish(seq)
	}
	wg.Wait()

	if sum != want {
		t.Fatalf("pipeline sum: got %d, want %d", sum, want)
	}
}
