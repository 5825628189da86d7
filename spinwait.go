// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

import (
	"runtime"
	"time"

	"code.hybscloud.com/spin"
)

// yieldThreshold is the number of busy-wait rounds before a SpinWait
// starts yielding the remainder of its time slice.
const yieldThreshold = 10

// initialSpinValue skips the busy-wait phase entirely on single-core
// machines, where pause hints cannot make progress visible.
var initialSpinValue uint32

func init() {
	if runtime.NumCPU() <= 1 {
		initialSpinValue = yieldThreshold
	}
}

// SpinWait is a helper for spin-wait loops. Call Once each time
// through the loop: the first rounds issue exponentially longer bursts
// of CPU pause hints, after which the helper escalates to yielding the
// thread's time slice, with a short sleep every 20th round.
//
// The zero value is ready to use:
//
//	var sw seqr.SpinWait
//	for !done() {
//	    sw.Once()
//	}
type SpinWait struct {
	value uint32
}

// Once waits for a short period of time. The busy-wait rounds grow
// longer with each call; after them, each call yields the time slice,
// and every 20th call sleeps for 1 ms instead.
func (s *SpinWait) Once() {
	if s.value < initialSpinValue {
		s.value = initialSpinValue
	}
	if s.value >= yieldThreshold {
		if (s.value-yieldThreshold)%20 == 19 {
			time.Sleep(time.Millisecond)
		} else {
			runtime.Gosched()
		}
	} else {
		for n := uint32(4) << s.value; n != 0; n-- {
			spin.Pause()
		}
	}
	if s.value == ^uint32(0) {
		s.value = yieldThreshold
	} else {
		s.value++
	}
}

// WillYield reports whether the next call to Once will yield the
// thread instead of busy-waiting. Timed wait loops use this to defer
// clock reads until the cheap spinning phase is over.
func (s *SpinWait) WillYield() bool {
	return max(s.value, initialSpinValue) >= yieldThreshold
}

// Reset restores the initial state.
func (s *SpinWait) Reset() {
	s.value = initialSpinValue
}
