package streamgen

import "encoding/binary"

// NextUint32 reads 4 keystream bytes and returns them as a big-endian
// uint32. This is the minimal integer-folding helper a consumer of a
// lightweight stream generator needs (SPEC_FULL.md §C); it is not a
// distribution library — spec.md §1 explicitly scopes random-variate
// distributions out of this core.
func (s *StreamGen) NextUint32() (uint32, error) {
	var buf [4]byte
	if err := s.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// NextFloat64 reads 8 keystream bytes and folds them into a float64 in
// [0, 1), using the top 53 bits for full float64 mantissa precision.
func (s *StreamGen) NextFloat64() (float64, error) {
	var buf [8]byte
	if err := s.Read(buf[:]); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(v) / (1 << 53), nil
}
