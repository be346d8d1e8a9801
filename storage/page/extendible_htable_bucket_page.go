package page

import (
	"github.com/mfukuda/UnagiDB/common"
)

// KeyComparator imposes a total order on bucket keys. It returns a negative
// number, zero, or a positive number when a is respectively smaller than,
// equal to, or greater than b.
type KeyComparator func(a uint64, b uint64) int

type HashTablePair struct {
	Key   uint64
	Value uint64
}

const sizeOfBucketPageHeader = 8
const sizeOfHashTablePair = 16
const HTableBucketArraySize = (common.PageSize - sizeOfBucketPageHeader) / sizeOfHashTablePair

/**
 * Bucket page format:
 *  ---------------------------------------------------------------------
 * | Size (4) | MaxSize (4) | KEY(1)+VALUE(1) | ... | KEY(n)+VALUE(n)
 *  ---------------------------------------------------------------------
 *
 * Entries are unordered; lookup is a linear scan under the key comparator.
 */
type ExtendibleHTableBucketPage struct {
	size    uint32
	maxSize uint32
	array   [HTableBucketArraySize]HashTablePair
}

// Init sets up a freshly allocated bucket page accepting up to maxSize entries
func (p *ExtendibleHTableBucketPage) Init(maxSize uint32) {
	common.SH_Assert(maxSize <= HTableBucketArraySize, "bucket max size exceeds page capacity")
	p.size = 0
	p.maxSize = maxSize
	for i := 0; i < HTableBucketArraySize; i++ {
		p.array[i] = HashTablePair{}
	}
}

// Lookup scans for key and returns its value
func (p *ExtendibleHTableBucketPage) Lookup(key uint64, cmp KeyComparator) (value uint64, found bool) {
	for i := uint32(0); i < p.size; i++ {
		if cmp(p.array[i].Key, key) == 0 {
			return p.array[i].Value, true
		}
	}
	return 0, false
}

// Insert appends the pair unless the bucket is full or the key is present already
func (p *ExtendibleHTableBucketPage) Insert(key uint64, value uint64, cmp KeyComparator) bool {
	if p.IsFull() {
		return false
	}
	for i := uint32(0); i < p.size; i++ {
		if cmp(p.array[i].Key, key) == 0 {
			return false
		}
	}
	p.array[p.size] = HashTablePair{key, value}
	p.size++
	return true
}

// Remove deletes the entry for key, swapping the last entry into its slot.
// Entry order is not preserved.
func (p *ExtendibleHTableBucketPage) Remove(key uint64, cmp KeyComparator) bool {
	for i := uint32(0); i < p.size; i++ {
		if cmp(p.array[i].Key, key) == 0 {
			p.RemoveAt(i)
			return true
		}
	}
	return false
}

// RemoveAt deletes the entry at bucketIdx by swapping with the last entry
func (p *ExtendibleHTableBucketPage) RemoveAt(bucketIdx uint32) {
	if bucketIdx >= p.size {
		return
	}
	p.array[bucketIdx] = p.array[p.size-1]
	p.array[p.size-1] = HashTablePair{}
	p.size--
}

// KeyAt returns the key at bucketIdx
func (p *ExtendibleHTableBucketPage) KeyAt(bucketIdx uint32) uint64 {
	return p.array[bucketIdx].Key
}

// ValueAt returns the value at bucketIdx
func (p *ExtendibleHTableBucketPage) ValueAt(bucketIdx uint32) uint64 {
	return p.array[bucketIdx].Value
}

// EntryAt returns the pair at bucketIdx
func (p *ExtendibleHTableBucketPage) EntryAt(bucketIdx uint32) HashTablePair {
	return p.array[bucketIdx]
}

// Size returns the number of live entries
func (p *ExtendibleHTableBucketPage) Size() uint32 {
	return p.size
}

// IsFull reports whether another entry fits
func (p *ExtendibleHTableBucketPage) IsFull() bool {
	return p.size == p.maxSize
}

// IsEmpty reports whether the bucket holds no entries
func (p *ExtendibleHTableBucketPage) IsEmpty() bool {
	return p.size == 0
}

// Clear drops all entries, keeping maxSize
func (p *ExtendibleHTableBucketPage) Clear() {
	p.size = 0
}
