// Package ctrdrbg implements the SP 800-90Ar1 §10.2.1 CTR_DRBG mechanism
// using AES-256 with no derivation function, as spec.md §4.3 requires.
//
// Unlike a general-purpose CTR_DRBG, this variant fixes entropy input
// length at 48 bytes (a 32-byte key plus a 16-byte block) and increments
// only the last 32 bits of its counter V, matching the "ctr_len = blocklen"
// NIST variant spec.md §9 calls out explicitly.
package ctrdrbg

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/entropic-systems/corerand/drbg"
	"github.com/entropic-systems/corerand/internal/metrics"
)

const (
	// KeyLen is the AES-256 key length in bytes.
	KeyLen = 32
	// BlockLen is the AES block length in bytes, also the length of V.
	BlockLen = 16
	// SeedLen is the entropy input length CTR_DRBG (no df) requires:
	// key length plus one block.
	SeedLen = KeyLen + BlockLen
	// MaxPersonalizationLen is the maximum personalization/additional_input
	// length accepted, equal to SeedLen (spec.md §4.3).
	MaxPersonalizationLen = SeedLen
)

// CTRDRBG is an SP 800-90A CTR_DRBG (AES-256, no df) instance. Not safe
// for concurrent use; callers that need concurrent generation should use
// one instance per goroutine or guard it with their own mutex (spec.md §5:
// "DRBG states are owned by their callers and are not shared by contract").
type CTRDRBG struct {
	k             [KeyLen]byte
	v             [BlockLen]byte
	reseedCounter uint64
	instantiated  bool
}

// New returns a zero-value, not-yet-instantiated CTR_DRBG. Call Instantiate
// before Generate.
func New() *CTRDRBG {
	return &CTRDRBG{}
}

// Instantiate seeds the generator per spec.md §4.3: entropy must be exactly
// SeedLen (48) bytes; personalization, if non-empty, must be at most
// MaxPersonalizationLen bytes and is XORed into a zero-padded copy of
// entropy before the first update.
func (c *CTRDRBG) Instantiate(entropy, _nonce, personalization []byte) drbg.Status {
	if len(entropy) != SeedLen {
		return drbg.BadArgs
	}
	if len(personalization) > MaxPersonalizationLen {
		return drbg.BadArgs
	}
	seed := make([]byte, SeedLen)
	defer drbg.Zero(seed)
	xorInto(seed, entropy, personalization)

	for i := range c.k {
		c.k[i] = 0
	}
	for i := range c.v {
		c.v[i] = 0
	}
	c.update(seed)
	c.reseedCounter = 1
	c.instantiated = true
	return drbg.Success
}

// Reseed mixes fresh entropy (exactly SeedLen bytes) and an optional
// additional_input (at most MaxPersonalizationLen bytes) into state and
// resets reseed_counter to 1, per spec.md §4.3.
func (c *CTRDRBG) Reseed(entropy, additionalInput []byte) drbg.Status {
	if !c.instantiated {
		return drbg.NotInitialized
	}
	if len(entropy) != SeedLen {
		return drbg.BadArgs
	}
	if len(additionalInput) > MaxPersonalizationLen {
		return drbg.BadArgs
	}
	seed := make([]byte, SeedLen)
	defer drbg.Zero(seed)
	xorInto(seed, entropy, additionalInput)
	c.update(seed)
	c.reseedCounter = 1
	metrics.DRBGReseeded("ctr_drbg")
	return drbg.Success
}

// Generate fills out with up to drbg.MaxOutPerCall bytes of pseudorandom
// output, per spec.md §4.3. If additionalInput is non-empty it is folded in
// via update before blocks are produced. After output, update is invoked
// again (this time with additionalInput only) for backtracking resistance.
func (c *CTRDRBG) Generate(out, additionalInput []byte) drbg.Status {
	if !c.instantiated {
		return drbg.NotInitialized
	}
	if len(out) > drbg.MaxOutPerCall {
		return drbg.BadArgs
	}
	if len(additionalInput) > MaxPersonalizationLen {
		return drbg.BadArgs
	}
	if c.reseedCounter > drbg.MaxReseed {
		return drbg.DoReseed
	}

	if len(additionalInput) > 0 {
		c.update(additionalInput)
	}

	block, err := aes.NewCipher(c.k[:])
	if err != nil {
		c.Clear()
		return drbg.Internal
	}
	c.generateBlocks(block, out)
	c.update(additionalInput)
	c.reseedCounter++
	return drbg.Success
}

// Clear scrubs all secret state. Safe to call repeatedly.
func (c *CTRDRBG) Clear() {
	drbg.Zero(c.k[:])
	drbg.Zero(c.v[:])
	c.reseedCounter = 0
	c.instantiated = false
}

// update is the internal CTR_DRBG Update primitive (spec.md §4.3): data
// must be empty or at most SeedLen bytes. It derives a new (K, V) pair by
// running the current key as an AES-256 CTR keystream into a temp buffer
// of SeedLen bytes, XORing data into its prefix.
func (c *CTRDRBG) update(data []byte) {
	block, err := aes.NewCipher(c.k[:])
	if err != nil {
		// Only possible error is a bad key length, which cannot happen
		// here since k is always KeyLen bytes.
		panic(err)
	}
	temp := make([]byte, SeedLen)
	defer drbg.Zero(temp)
	c.generateBlocks(block, temp)
	for i := range data {
		temp[i] ^= data[i]
	}
	copy(c.k[:], temp[:KeyLen])
	copy(c.v[:], temp[KeyLen:])
}

// generateBlocks fills out with AES-256-CTR keystream blocks, incrementing
// only the last 32 bits of v before each block (spec.md §4.3, §9: "Counter
// arithmetic: the last 32 bits of V carry the counter; upper 96 bits are
// not incremented").
func (c *CTRDRBG) generateBlocks(block cipher.Block, out []byte) {
	full := len(out) / BlockLen
	for i := 0; i < full; i++ {
		incrV(&c.v)
		block.Encrypt(out[i*BlockLen:(i+1)*BlockLen], c.v[:])
	}
	if tail := len(out) % BlockLen; tail != 0 {
		var tmp [BlockLen]byte
		incrV(&c.v)
		block.Encrypt(tmp[:], c.v[:])
		copy(out[full*BlockLen:], tmp[:tail])
	}
}

// incrV increments only the last 32 bits of v, treated as a big-endian
// counter, per spec.md §4.3/§9. The upper 96 bits are never touched, so
// this counter wraps within its 32-bit window rather than carrying into
// the rest of V.
func incrV(v *[BlockLen]byte) {
	for i := BlockLen - 1; i >= BlockLen-4; i-- {
		v[i]++
		if v[i] != 0 {
			return
		}
	}
}

// xorInto writes entropy XOR (personalization || 0-pad) into dst, which
// must already be sized to len(entropy).
func xorInto(dst, entropy, personalization []byte) {
	copy(dst, entropy)
	for i := range personalization {
		dst[i] ^= personalization[i]
	}
}
