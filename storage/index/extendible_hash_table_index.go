package index

import (
	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/container/hash"
	"github.com/mfukuda/UnagiDB/storage/buffer"
	"github.com/mfukuda/UnagiDB/storage/page"
	"github.com/mfukuda/UnagiDB/types"
)

/**
 * ExtendibleHashTableIndex is the index surface the executors consume.
 * Serialized keys are folded into the table's key space with murmur3 and the
 * record ids are packed into the table's value space, so index scans resolve
 * a key to the RIDs of matching tuples in one bucket lookup.
 */
type ExtendibleHashTableIndex struct {
	container *hash.DiskExtendibleHashTable
}

// NewExtendibleHashTableIndex opens the index rooted at headerPageId, or
// creates a fresh one when headerPageId is InvalidPageID
func NewExtendibleHashTableIndex(bpm *buffer.BufferPoolManager, headerPageId types.PageID) *ExtendibleHashTableIndex {
	container := hash.NewDiskExtendibleHashTable(bpm, common.HashTableHeaderMaxDepth,
		common.HashTableDirectoryMaxDepth, common.HashTableBucketMaxSize,
		hash.HashUint64, hash.Uint64Comparator, headerPageId)
	return &ExtendibleHashTableIndex{container}
}

// InsertEntry maps key to rid. Returns false on a duplicate key.
func (i *ExtendibleHashTableIndex) InsertEntry(key []byte, rid page.RID) bool {
	return i.container.Insert(hash.HashBytes64(key), rid.Pack())
}

// GetRids returns the record ids stored under key
func (i *ExtendibleHashTableIndex) GetRids(key []byte) []page.RID {
	values, found := i.container.GetValue(hash.HashBytes64(key))
	if !found {
		return nil
	}
	rids := make([]page.RID, 0, len(values))
	for _, value := range values {
		rids = append(rids, page.UnpackRID(value))
	}
	return rids
}

// DeleteEntry removes the mapping for key
func (i *ExtendibleHashTableIndex) DeleteEntry(key []byte) bool {
	return i.container.Remove(hash.HashBytes64(key))
}

// GetHeaderPageId returns the page id the underlying table is rooted at
func (i *ExtendibleHashTableIndex) GetHeaderPageId() types.PageID {
	return i.container.GetHeaderPageId()
}
