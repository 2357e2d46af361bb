// Package hmacdrbg implements the SP 800-90A HMAC_DRBG mechanism using
// HMAC-SHA-512, per spec.md §4.5.
package hmacdrbg

import (
	"crypto/hmac"
	"crypto/sha512"

	"github.com/entropic-systems/corerand/drbg"
	"github.com/entropic-systems/corerand/internal/metrics"
)

// OutLen is the HMAC-SHA-512 output length in bytes, also the length of
// K and V.
const OutLen = 64

// HMACDRBG is an SP 800-90A HMAC_DRBG (SHA-512) instance. Not safe for
// concurrent use (spec.md §5).
type HMACDRBG struct {
	k             [OutLen]byte
	v             [OutLen]byte
	reseedCounter uint64
	instantiated  bool
}

// New returns a zero-value, not-yet-instantiated HMAC_DRBG.
func New() *HMACDRBG {
	return &HMACDRBG{}
}

// update is the HMAC_DRBG Update primitive (spec.md §4.5):
//
//	K = HMAC(K, V || 0x00 || data); V = HMAC(K, V)
//	if data is non-empty: K = HMAC(K, V || 0x01 || data); V = HMAC(K, V)
func (d *HMACDRBG) update(data []byte) {
	d.hmacStep(0x00, data)
	if len(data) > 0 {
		d.hmacStep(0x01, data)
	}
}

func (d *HMACDRBG) hmacStep(tag byte, data []byte) {
	mac := hmac.New(sha512.New, d.k[:])
	mac.Write(d.v[:])
	mac.Write([]byte{tag})
	mac.Write(data)
	copy(d.k[:], mac.Sum(nil))

	mac = hmac.New(sha512.New, d.k[:])
	mac.Write(d.v[:])
	copy(d.v[:], mac.Sum(nil))
}

// Instantiate seeds the generator per spec.md §4.5: K = 0x00^64,
// V = 0x01^64, then update(entropy || nonce || personalization).
func (d *HMACDRBG) Instantiate(entropy, nonce, personalization []byte) drbg.Status {
	if len(entropy) == 0 {
		return drbg.BadArgs
	}
	for i := range d.k {
		d.k[i] = 0x00
	}
	for i := range d.v {
		d.v[i] = 0x01
	}
	seedMaterial := make([]byte, 0, len(entropy)+len(nonce)+len(personalization))
	seedMaterial = append(seedMaterial, entropy...)
	seedMaterial = append(seedMaterial, nonce...)
	seedMaterial = append(seedMaterial, personalization...)
	defer drbg.Zero(seedMaterial)

	d.update(seedMaterial)
	d.reseedCounter = 1
	d.instantiated = true
	return drbg.Success
}

// Reseed mixes fresh entropy and optional additional_input via update and
// resets reseed_counter to 1, per spec.md §4.5.
func (d *HMACDRBG) Reseed(entropy, additionalInput []byte) drbg.Status {
	if !d.instantiated {
		return drbg.NotInitialized
	}
	if len(entropy) == 0 {
		return drbg.BadArgs
	}
	material := make([]byte, 0, len(entropy)+len(additionalInput))
	material = append(material, entropy...)
	material = append(material, additionalInput...)
	defer drbg.Zero(material)

	d.update(material)
	d.reseedCounter = 1
	metrics.DRBGReseeded("hmac_drbg")
	return drbg.Success
}

// Generate fills out with up to drbg.MaxOutPerCall bytes per spec.md §4.5:
// an optional pre-update with additionalInput, then repeated
// V = HMAC(K, V) emission, then a mandatory post-update with
// additionalInput (even when empty), then reseed_counter += 1.
func (d *HMACDRBG) Generate(out, additionalInput []byte) drbg.Status {
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
		d.update(additionalInput)
	}

	produced := 0
	for produced < len(out) {
		mac := hmac.New(sha512.New, d.k[:])
		mac.Write(d.v[:])
		copy(d.v[:], mac.Sum(nil))
		produced += copy(out[produced:], d.v[:])
	}

	d.update(additionalInput)
	d.reseedCounter++
	return drbg.Success
}

// Clear scrubs all secret state. Safe to call repeatedly.
func (d *HMACDRBG) Clear() {
	drbg.Zero(d.k[:])
	drbg.Zero(d.v[:])
	d.reseedCounter = 0
	d.instantiated = false
}
