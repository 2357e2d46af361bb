package collector

import "hash/crc32"

// crcTable is the table-driven IEEE CRC-32 (reflected polynomial
// 0xEDB88320) spec.md §6 names for the user-event collector. The stdlib's
// IEEE table already implements this exact reflected polynomial, so it is
// used directly rather than hand-rolled; spec.md §8's literal KATs are
// exactly this table's outputs.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the IEEE CRC-32 of data, per spec.md §6's "CRC-32 probe
// helper: polynomial 0xEDB88320 (reflected, IEEE); table-driven".
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}
