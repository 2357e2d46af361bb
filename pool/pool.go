// Package pool implements the fixed-size, mutex-guarded entropy pool
// spec.md §3/§4.1 describes: a byte buffer that many heterogeneous sources
// XOR-accumulate into, periodically diffused by SHA-512, and extracted
// from via a two-pass XOR-and-invert Fetch.
package pool

import (
	"crypto/sha512"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DigestSize is the HashPrimitive digest length (SHA-512), spec.md §3.
	DigestSize = sha512.Size
	// DefaultSize is the default POOL_SIZE, spec.md §3: 384 bytes, six
	// SHA-512 blocks.
	DefaultSize = 384
	// MixInterval is the number of added bytes that triggers a mix before
	// further writes, spec.md §3.
	MixInterval = 32
)

// Pool is the process's single entropy accumulator. The zero value is not
// usable; construct with New.
//
// Per spec.md §9 ("process-wide singleton pool is a requirement"), callers
// are expected to hold exactly one Pool per process, typically behind the
// root package's lazily-initialized singleton, but Pool itself does not
// enforce that — it is safe to construct more than one for testing.
type Pool struct {
	mu sync.Mutex

	bytes        []byte
	writeCursor  int
	readCursor   int
	sinceLastMix int

	initialized   bool
	didSlowPoll   bool
	stopRequested bool
	capabilities  Capabilities
	log           *logrus.Entry
}

// Capabilities records what the host can offer the pool at Init time
// (spec.md §4.1 "Probes OS-RNG provider and CPU-RNG availability and
// records capability flags").
type Capabilities struct {
	OSRNGAvailable bool
	HasRDRAND      bool
	HasRDSEED      bool
	MemoryLocked   bool
}

// New allocates a Pool of the given size. size must be a positive multiple
// of DigestSize (spec.md §3 invariant "POOL_SIZE mod D == 0"); per spec.md
// §9's resolution of the pool-size/digest-size open question, this is
// enforced here at construction time, not deferred to the first mix, and a
// violation is an unrecoverable configuration bug: New panics rather than
// returning an error (spec.md §7 "INVALID_POOL_SIZE is treated as an
// unrecoverable configuration bug and aborts the process").
func New(size int, log *logrus.Entry) *Pool {
	if size <= 0 || size%DigestSize != 0 {
		panic(fmt.Sprintf("pool: invalid POOL_SIZE %d: must be a positive multiple of %d", size, DigestSize))
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pool{
		bytes: make([]byte, size),
		log:   log,
	}
}

// Size returns the pool's fixed capacity.
func (p *Pool) Size() int {
	return len(p.bytes)
}

// Init allocates, locks, and zero-initializes storage, records host
// capability flags, and marks the pool initialized. Idempotent: a second
// call returns immediately (spec.md §4.1).
func (p *Pool) Init(caps Capabilities) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return
	}
	for i := range p.bytes {
		p.bytes[i] = 0
	}
	p.writeCursor = 0
	p.readCursor = 0
	p.sinceLastMix = 0
	p.didSlowPoll = false
	p.stopRequested = false
	p.capabilities = caps
	p.capabilities.MemoryLocked = lockMemory(p.bytes)
	p.initialized = true
	p.log.WithField("pool_size", len(p.bytes)).Debug("pool initialized")
}

// Initialized reports whether Init has run and Stop has not yet released
// storage.
func (p *Pool) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// DidSlowPoll reports whether at least one slow poll has completed
// successfully in this pool's lifetime (spec.md §3, §8 "no-slow-poll ⇒
// no-fetch").
func (p *Pool) DidSlowPoll() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.didSlowPoll
}

// MarkSlowPollComplete records that a slow poll has completed successfully.
// Called by the collector, never by Fetch itself, since spec.md §4.2
// assigns slow-poll orchestration to the Collector.
func (p *Pool) MarkSlowPollComplete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.didSlowPoll = true
}

// Add mixes src into the pool: each byte is XORed into bytes[writeCursor++]
// with wraparound (spec.md §4.1 "Additions never overwrite existing bytes;
// they XOR-accumulate"). Every MixInterval bytes written triggers a mix.
// Add cannot fail (spec.md §4.1).
func (p *Pool) Add(src []byte) {
	if len(src) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addLocked(src)
}

func (p *Pool) addLocked(src []byte) {
	n := len(p.bytes)
	for _, b := range src {
		p.bytes[p.writeCursor] ^= b
		p.writeCursor = (p.writeCursor + 1) % n
		p.sinceLastMix++
		if p.sinceLastMix >= MixInterval {
			p.mixLocked()
			p.sinceLastMix = 0
		}
	}
}

// Mix performs one diffusion pass over the whole pool (spec.md §4.1
// "mix()"). Mix cannot fail and is a pure function of pool bytes (spec.md
// §8 "Mix determinism").
func (p *Pool) Mix() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixLocked()
}

// mixLocked implements spec.md §4.1's forward-dependency chain: for each of
// the n = POOL_SIZE/D blocks, hash the *entire current pool* (including
// already-updated blocks from earlier in this same pass) and XOR the digest
// into that block.
func (p *Pool) mixLocked() {
	n := len(p.bytes) / DigestSize
	for i := 0; i < n; i++ {
		h := sha512.Sum512(p.bytes)
		block := p.bytes[i*DigestSize : (i+1)*DigestSize]
		for j := range block {
			block[j] ^= h[j]
		}
	}
}

// Fetch serves buf (len(buf) <= Size()) with extracted pool output,
// per spec.md §4.1's algorithm. The caller is the Collector/root package,
// which is responsible for having already run a slow poll (step 1 of the
// spec.md algorithm lives one layer up, in the root package's
// corerand.Fetch, which runs the collector's polls, since it requires
// calling out to EntropyProbes the Pool itself knows nothing about); Fetch
// here refuses to run until a slow poll has been marked complete, then
// performs steps 3-6: mix, two-pass XOR
// extraction separated by a full bit-inversion and second mix, then a
// final mix that does not affect delivered output.
func (p *Pool) Fetch(buf []byte) error {
	if len(buf) > len(p.bytes) {
		return fmt.Errorf("pool: fetch of %d bytes exceeds pool size %d", len(buf), len(p.bytes))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("pool: not initialized")
	}
	if !p.didSlowPoll {
		return fmt.Errorf("pool: no slow poll has completed yet")
	}

	p.mixLocked()
	p.xorExtractLocked(buf)

	for i := range p.bytes {
		p.bytes[i] ^= 0xFF
	}

	p.mixLocked()
	p.xorExtractLocked(buf)

	p.mixLocked()
	return nil
}

// xorExtractLocked XORs pool[readCursor...] (with wraparound) into buf and
// advances readCursor by len(buf).
func (p *Pool) xorExtractLocked(buf []byte) {
	n := len(p.bytes)
	for i := range buf {
		buf[i] ^= p.bytes[p.readCursor]
		p.readCursor = (p.readCursor + 1) % n
	}
}

// Stop signals that the pool is being torn down: it scrubs and releases
// backing storage and resets lifecycle flags. The background fast-poll
// task lifecycle itself is owned by collector.Collector, not Pool; Stop
// here only handles the storage side of spec.md §4.1's teardown contract.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	unlockMemory(p.bytes)
	for i := range p.bytes {
		p.bytes[i] = 0
	}
	p.writeCursor = 0
	p.readCursor = 0
	p.sinceLastMix = 0
	p.initialized = false
	p.didSlowPoll = false
	p.log.Debug("pool stopped and scrubbed")
}

// Capabilities returns the host capability flags recorded at Init.
func (p *Pool) Capabilities() Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capabilities
}
