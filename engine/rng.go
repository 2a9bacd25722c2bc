package engine

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/blake2b"
)

// RNG algorithm names accepted in Config.RNGAlgorithm and recorded in every MatchRecord.
const (
	AlgoSplitMix64 = "splitmix64"
	AlgoBlake2b    = "blake2b"
)

// RNG is a counter-based generator keyed by tick. The k-th draw of tick t is a
// pure function of (seed, t, k), so a tick's draws never depend on how many
// draws earlier ticks consumed, and any state snapshot can be stepped without
// carrying generator state.
type RNG interface {
	Name() string
	Draw(tick, k uint64) uint64
}

// NewRNG builds the named generator for a seed.
func NewRNG(algorithm string, seed uint64) (RNG, error) {
	switch algorithm {
	case AlgoSplitMix64, "":
		return splitMix64{seed: seed}, nil
	case AlgoBlake2b:
		return blake2bCounter{seed: seed}, nil
	default:
		return nil, fmt.Errorf("unknown rng algorithm %q", algorithm)
	}
}

type splitMix64 struct {
	seed uint64
}

func (splitMix64) Name() string { return AlgoSplitMix64 }

// Draw mixes seed + counter*golden-gamma through the SplitMix64 finaliser.
// The counter packs the tick above bit 20 and k+1 below it.
func (s splitMix64) Draw(tick, k uint64) uint64 {
	ctr := tick<<20 | (k + 1)
	z := s.seed + ctr*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

type blake2bCounter struct {
	seed uint64
}

func (blake2bCounter) Name() string { return AlgoBlake2b }

// Draw takes the first 8 bytes of BLAKE2b-256(seed || tick || k), all big-endian.
func (b blake2bCounter) Draw(tick, k uint64) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], b.seed)
	binary.BigEndian.PutUint64(buf[8:16], tick)
	binary.BigEndian.PutUint64(buf[16:24], k)
	sum := blake2b.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// Roll maps a draw onto [0, BPSScale) with one multiply-high; it never rejects,
// so each roll consumes exactly one draw.
func Roll(draw uint64) int64 {
	hi, _ := bits.Mul64(draw, uint64(BPSScale))
	return int64(hi)
}

// tickStream hands out the rolls of a single tick in order.
type tickStream struct {
	rng  RNG
	tick uint64
	k    uint64
}

func (s *tickStream) next() int64 {
	d := s.rng.Draw(s.tick, s.k)
	s.k++
	return Roll(d)
}

func (s *tickStream) take(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = s.next()
	}
	return out
}
