package domain

import "fmt"

// RoundSeed builds the canonical shuffle seed for a round. The same
// (matchID, roundNumber) pair always yields the same seed, so presentation
// order stays reproducible even if match data is exported elsewhere.
func RoundSeed(matchID string, roundNumber int) string {
	return fmt.Sprintf("%s-round-%d", matchID, roundNumber)
}

// hashSeed mixes a seed string into a 32-bit state (FNV-1a plus a final
// avalanche). All arithmetic deliberately wraps at 32 bits so the sequence is
// portable across languages.
func hashSeed(seed string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= 16777619
	}
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	if h == 0 {
		// xorshift must not start at zero
		h = 0x9e3779b9
	}
	return h
}

type xorshift32 struct {
	state uint32
}

func (r *xorshift32) next() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// ShuffleIdentities returns a Fisher-Yates permutation of identities driven by
// the seeded generator. The input slice is not modified.
func ShuffleIdentities(identities []Identity, seed string) []Identity {
	out := make([]Identity, len(identities))
	copy(out, identities)

	rng := &xorshift32{state: hashSeed(seed)}
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.next() % uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
