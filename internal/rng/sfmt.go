// Package rng provides the seeded pseudorandom source that drives pulse
// trials. The generator is SFMT19937 (the SIMD-oriented variant of the
// Mersenne Twister, period 2^19937-1) producing uniform 32-bit values.
//
// Determinism is a hard requirement: for a fixed seed the Uint32 sequence is
// bit-identical across platforms and processes. The emitted pulse train is
// only statistically meaningful for a seeded generator, so a generator
// cannot be constructed without a seed.
package rng

const (
	n128 = 156       // 128-bit words of state
	n32  = n128 * 4  // state size in 32-bit words
	pos1 = 122
	sl1  = 18
	sr1  = 11
)

// recursion masks and the period-certification parity vector for MEXP 19937
var (
	mask   = [4]uint32{0xdfffffef, 0xddfecb7f, 0xbffaffff, 0xbffffff6}
	parity = [4]uint32{0x00000001, 0x00000000, 0x00000000, 0x13c9e684}
)

// SFMT is a seeded SFMT19937 generator. Not safe for concurrent use; the
// control loop is the only caller.
type SFMT struct {
	state [n32]uint32
	idx   int
}

// New returns a generator deterministically initialized from seed.
func New(seed uint32) *SFMT {
	s := &SFMT{idx: n32}
	s.state[0] = seed
	for i := uint32(1); i < n32; i++ {
		prev := s.state[i-1]
		s.state[i] = 1812433253*(prev^(prev>>30)) + i
	}
	s.certify()
	return s
}

// certify guarantees the state lies on a full-period orbit, flipping one
// bit of the initial state if the parity check fails.
func (s *SFMT) certify() {
	var inner uint32
	for i := 0; i < 4; i++ {
		inner ^= s.state[i] & parity[i]
	}
	for shift := 16; shift > 0; shift >>= 1 {
		inner ^= inner >> shift
	}
	if inner&1 == 1 {
		return
	}
	for i := 0; i < 4; i++ {
		work := uint32(1)
		for j := 0; j < 32; j++ {
			if work&parity[i] != 0 {
				s.state[i] ^= work
				return
			}
			work <<= 1
		}
	}
}

// Uint32 returns the next value in the sequence, uniform over the full
// 32-bit range.
func (s *SFMT) Uint32() uint32 {
	if s.idx >= n32 {
		s.regenerate()
		s.idx = 0
	}
	v := s.state[s.idx]
	s.idx++
	return v
}

// regenerate advances the whole state array by one recursion pass. The
// 128-bit byte shifts of the reference implementation are expressed on the
// four little-endian 32-bit lanes of each word.
func (s *SFMT) regenerate() {
	c := (n128 - 2) * 4
	d := (n128 - 1) * 4
	for i := 0; i < n128; i++ {
		a := i * 4
		b := ((i + pos1) % n128) * 4

		a0, a1, a2, a3 := s.state[a], s.state[a+1], s.state[a+2], s.state[a+3]
		c0, c1, c2, c3 := s.state[c], s.state[c+1], s.state[c+2], s.state[c+3]

		// x = w(a) << 8 bits across the 128-bit word
		x0 := a0 << 8
		x1 := a1<<8 | a0>>24
		x2 := a2<<8 | a1>>24
		x3 := a3<<8 | a2>>24

		// y = w(c) >> 8 bits across the 128-bit word
		y0 := c0>>8 | c1<<24
		y1 := c1>>8 | c2<<24
		y2 := c2>>8 | c3<<24
		y3 := c3 >> 8

		d0, d1, d2, d3 := s.state[d], s.state[d+1], s.state[d+2], s.state[d+3]

		s.state[a] = a0 ^ x0 ^ (s.state[b]>>sr1)&mask[0] ^ y0 ^ d0<<sl1
		s.state[a+1] = a1 ^ x1 ^ (s.state[b+1]>>sr1)&mask[1] ^ y1 ^ d1<<sl1
		s.state[a+2] = a2 ^ x2 ^ (s.state[b+2]>>sr1)&mask[2] ^ y2 ^ d2<<sl1
		s.state[a+3] = a3 ^ x3 ^ (s.state[b+3]>>sr1)&mask[3] ^ y3 ^ d3<<sl1

		c = d
		d = a
	}
}
