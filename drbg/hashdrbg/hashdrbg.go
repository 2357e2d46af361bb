// Package hashdrbg implements the SP 800-90A Hash_DRBG mechanism using
// SHA-512, per spec.md §4.4.
package hashdrbg

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/entropic-systems/corerand/drbg"
	"github.com/entropic-systems/corerand/internal/metrics"
)

const (
	// SeedLen is the Hash_DRBG seed length for SHA-512, spec.md §4.4.
	SeedLen = 111
	// DigestLen is the SHA-512 digest size in bytes.
	DigestLen = 64
	// MinEntropyLen is the minimum accepted entropy length, spec.md §4.4.
	MinEntropyLen = 32
	// MaxNonceLen is the maximum accepted nonce length, spec.md §4.4.
	MaxNonceLen = 1 << 16
)

// HashDRBG is an SP 800-90A Hash_DRBG (SHA-512) instance. Not safe for
// concurrent use (spec.md §5).
type HashDRBG struct {
	v             [SeedLen]byte
	c             [SeedLen]byte
	reseedCounter uint64
	instantiated  bool
}

// New returns a zero-value, not-yet-instantiated Hash_DRBG.
func New() *HashDRBG {
	return &HashDRBG{}
}

// HashDF is the SP 800-90A Hash_df construction (spec.md §4.4): it emits
// ceil(nBytes/DigestLen) blocks, block i (counter i = 1, 2, ...) equal to
// SHA512(counter_byte || nBytes*8 as 32-bit big-endian || input), truncated
// to nBytes.
func HashDF(input []byte, nBytes int) []byte {
	out := make([]byte, 0, nBytes+DigestLen)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(nBytes)*8)
	for counter := byte(1); len(out) < nBytes; counter++ {
		h := sha512.New()
		h.Write([]byte{counter})
		h.Write(lenBuf[:])
		h.Write(input)
		out = h.Sum(out)
	}
	return out[:nBytes]
}

// Instantiate seeds the generator per spec.md §4.4: entropy must be between
// MinEntropyLen and 2^32 bytes inclusive, nonce is required (<= MaxNonceLen
// bytes), personalization is optional.
func (d *HashDRBG) Instantiate(entropy, nonce, personalization []byte) drbg.Status {
	if len(entropy) < MinEntropyLen || uint64(len(entropy)) > 1<<32 {
		return drbg.BadArgs
	}
	if len(nonce) == 0 || len(nonce) > MaxNonceLen {
		return drbg.BadArgs
	}
	seedMaterial := make([]byte, 0, len(entropy)+len(nonce)+len(personalization))
	seedMaterial = append(seedMaterial, entropy...)
	seedMaterial = append(seedMaterial, nonce...)
	seedMaterial = append(seedMaterial, personalization...)
	defer drbg.Zero(seedMaterial)

	copy(d.v[:], HashDF(seedMaterial, SeedLen))
	d.recomputeC()
	d.reseedCounter = 1
	d.instantiated = true
	return drbg.Success
}

// Reseed mixes fresh entropy and optional additional_input into V per
// spec.md §4.4 and resets reseed_counter to 1.
func (d *HashDRBG) Reseed(entropy, additionalInput []byte) drbg.Status {
	if !d.instantiated {
		return drbg.NotInitialized
	}
	if len(entropy) < MinEntropyLen {
		return drbg.BadArgs
	}
	material := make([]byte, 0, 1+SeedLen+len(entropy)+len(additionalInput))
	material = append(material, 0x01)
	material = append(material, d.v[:]...)
	material = append(material, entropy...)
	material = append(material, additionalInput...)
	defer drbg.Zero(material)

	copy(d.v[:], HashDF(material, SeedLen))
	d.recomputeC()
	d.reseedCounter = 1
	metrics.DRBGReseeded("hash_drbg")
	return drbg.Success
}

// recomputeC sets C = Hash_df(0x00 || V, SeedLen), per spec.md §4.4.
func (d *HashDRBG) recomputeC() {
	buf := make([]byte, 1+SeedLen)
	buf[0] = 0x00
	copy(buf[1:], d.v[:])
	copy(d.c[:], HashDF(buf, SeedLen))
}

// Generate fills out with up to drbg.MaxOutPerCall bytes, per spec.md §4.4.
func (d *HashDRBG) Generate(out, additionalInput []byte) drbg.Status {
	if !d.instantiated {
		return drbg.NotInitialized
	}
	if len(out) > drbg.MaxOutPerCall {
		return drbg.BadArgs
	}
	if d.reseedCounter > drbg.MaxReseed {
		return drbg.DoReseed
	}

	if len(additionalInput) > 0 {
		h := sha512.New()
		h.Write([]byte{0x02})
		h.Write(d.v[:])
		h.Write(additionalInput)
		w := h.Sum(nil)
		addMod2L(d.v[:], w)
	}

	hashgen(d.v, out)

	h := sha512.New()
	h.Write([]byte{0x03})
	h.Write(d.v[:])
	hv := h.Sum(nil)

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], d.reseedCounter)
	addMod2L(d.v[:], hv)
	addMod2L(d.v[:], d.c[:])
	addMod2L(d.v[:], counterBytes[:])
	d.reseedCounter++
	return drbg.Success
}

// hashgen implements the SP 800-90A Hashgen subroutine (spec.md §4.4):
// starting from data = v, repeatedly emit SHA512(data) and increment data
// modulo 2^(SeedLen*8) until outLen bytes have been produced.
func hashgen(v [SeedLen]byte, out []byte) {
	data := v
	produced := 0
	for produced < len(out) {
		h := sha512.Sum512(data[:])
		n := copy(out[produced:], h[:])
		produced += n
		incrMod2L(&data)
	}
}

// incrMod2L increments data by one, modulo 2^(len(data)*8), in big-endian
// byte layout, carrying from the least-significant (last) byte.
func incrMod2L(data *[SeedLen]byte) {
	for i := len(data) - 1; i >= 0; i-- {
		data[i]++
		if data[i] != 0 {
			return
		}
	}
}

// addMod2L adds big-endian byte string add into dst modulo 2^(len(dst)*8),
// per spec.md §4.4's "big-integer addition mod 2^(SEED_LEN*8)...implemented
// byte-wise in big-endian layout with carry propagation from the
// least-significant byte." add may be shorter than dst; it is treated as
// right-aligned (its own least-significant byte aligns with dst's).
func addMod2L(dst, add []byte) {
	carry := uint16(0)
	di := len(dst) - 1
	ai := len(add) - 1
	for di >= 0 {
		sum := carry
		if ai >= 0 {
			sum += uint16(dst[di]) + uint16(add[ai])
			ai--
		} else {
			sum += uint16(dst[di])
		}
		dst[di] = byte(sum)
		carry = sum >> 8
		di--
	}
}

// Clear scrubs all secret state. Safe to call repeatedly.
func (d *HashDRBG) Clear() {
	drbg.Zero(d.v[:])
	drbg.Zero(d.c[:])
	d.reseedCounter = 0
	d.instantiated = false
}
