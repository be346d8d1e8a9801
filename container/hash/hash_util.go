package hash

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// HashFunc maps a key into the 32 bit hash space the index distributes on
type HashFunc func(key uint64) uint32

// HashUint64 is the default key hasher
func HashUint64(key uint64) uint32 {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, key)
	return HashBytes(buf)
}

// HashBytes hashes an arbitrary byte string with murmur3
func HashBytes(data []byte) uint32 {
	h := murmur3.New128()
	h.Write(data)
	hash := h.Sum(nil)
	return binary.LittleEndian.Uint32(hash)
}

// Uint64Comparator is the default key comparator
func Uint64Comparator(a uint64, b uint64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// HashBytes64 hashes an arbitrary byte string into the table key space
func HashBytes64(data []byte) uint64 {
	h := murmur3.New128()
	h.Write(data)
	hash := h.Sum(nil)
	return binary.LittleEndian.Uint64(hash)
}
