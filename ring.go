// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

// RingBuffer is a power-of-two buffer addressed by sequence number.
// Slot i is addressed by every sequence of the form n*Size() + i.
//
// The buffer carries no synchronisation of its own: a claim strategy
// hands out exclusive sequences to writers, and barriers make the
// writes visible to readers. Accessing a slot outside a claimed or
// published sequence is a data race.
type RingBuffer[T any] struct {
	mask Sequence
	data []T
}

// NewRingBuffer creates a ring buffer with the given number of slots.
// Panics if size is not a positive power of two.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("seqr: buffer size must be a power of two")
	}
	return &RingBuffer[T]{
		mask: Sequence(size - 1),
		data: make([]T, size),
	}
}

// Size returns the number of slots.
func (r *RingBuffer[T]) Size() int {
	return int(r.mask) + 1
}

// At returns a pointer to the slot addressed by seq.
func (r *RingBuffer[T]) At(seq Sequence) *T {
	return &r.data[seq&r.mask]
}
