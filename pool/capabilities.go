package pool

import (
	"crypto/rand"

	"golang.org/x/sys/cpu"
)

// DetectCapabilities probes the host for the capability flags spec.md §4.1
// says Init must record: OS-RNG availability and CPU-RNG instruction
// support. The actual RDRAND/RDSEED *reads* stay behind the collector's
// EntropyProbes.CPURand/CPUSeed methods (spec.md §6) — this only checks whether
// the instructions exist on this CPU, via golang.org/x/sys/cpu's feature
// flags, which requires no privilege and cannot itself leak entropy state.
func DetectCapabilities() Capabilities {
	var probe [1]byte
	_, err := rand.Read(probe[:])
	return Capabilities{
		OSRNGAvailable: err == nil,
		HasRDRAND:      cpu.X86.HasRDRAND,
		HasRDSEED:      cpu.X86.HasRDSEED,
	}
}
