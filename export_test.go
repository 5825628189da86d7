// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package seqr

// SetNextClaimable rewinds the strategy so that the next claimed
// sequence is first, exactly as a fresh strategy would behave had its
// sequences started there. The published cells are reinitialised to
// the previous-lap values of the new window. Test-only; must be called
// before the strategy is shared.
func (s *MultiProducerClaim[W]) SetNextClaimable(first Sequence) {
	s.nextClaimable.StoreRelaxed(uint64(first))
	for k := Sequence(0); k < s.bufferSize; k++ {
		seq := first + k
		s.published[seq&s.indexMask].StoreRelaxed(uint64(seq - s.bufferSize))
	}
}
