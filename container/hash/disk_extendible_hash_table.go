package hash

import (
	"unsafe"

	"github.com/golang-collections/collections/queue"
	pair "github.com/notEpsilon/go-pair"

	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/storage/buffer"
	"github.com/mfukuda/UnagiDB/storage/page"
	"github.com/mfukuda/UnagiDB/types"
)

/**
 * DiskExtendibleHashTable is a three level hash index backed by the buffer
 * pool: a header page fans the top bits of a hash out to directory pages,
 * a directory page maps the low GlobalDepth bits to bucket pages, and bucket
 * pages hold the key/value pairs. Buckets split when full and merge with
 * their split image when one side empties; the directory grows and shrinks
 * with them.
 *
 * Latching is top down. The header is released as soon as the directory page
 * id has been read, unless a new directory is being created under it. Insert
 * and Remove keep the directory write latched for the whole operation,
 * across bucket splits and merges; GetValue releases the directory once the
 * bucket is latched.
 */
type DiskExtendibleHashTable struct {
	headerPageId      types.PageID
	bpm               *buffer.BufferPoolManager
	headerMaxDepth    uint32
	directoryMaxDepth uint32
	bucketMaxSize     uint32
	hashFn            HashFunc
	cmp               page.KeyComparator
}

// NewDiskExtendibleHashTable opens the hash table whose header lives at
// headerPageId, or creates a fresh one when headerPageId is InvalidPageID.
// The header is the first page id a new index allocates; every other page
// comes into existence lazily.
func NewDiskExtendibleHashTable(bpm *buffer.BufferPoolManager, headerMaxDepth uint32, directoryMaxDepth uint32,
	bucketMaxSize uint32, hashFn HashFunc, cmp page.KeyComparator, headerPageId types.PageID) *DiskExtendibleHashTable {
	ht := &DiskExtendibleHashTable{headerPageId, bpm, headerMaxDepth, directoryMaxDepth, bucketMaxSize, hashFn, cmp}

	if headerPageId == types.InvalidPageID {
		headerGuard := bpm.NewPageGuarded()
		if headerGuard == nil {
			panic("DiskExtendibleHashTable: could not allocate the header page")
		}
		headerPage := asHeaderPage(headerGuard.GetDataMut())
		headerPage.Init(headerMaxDepth)
		ht.headerPageId = headerGuard.PageId()
		headerGuard.Drop()
	}

	return ht
}

// GetHeaderPageId returns the page id the index is rooted at
func (ht *DiskExtendibleHashTable) GetHeaderPageId() types.PageID {
	return ht.headerPageId
}

// GetValue looks key up and returns the values stored under it.
// Keys are unique, so the result holds at most one entry.
func (ht *DiskExtendibleHashTable) GetValue(key uint64) ([]uint64, bool) {
	hash := ht.hashFn(key)

	headerGuard := ht.bpm.FetchPageRead(ht.headerPageId)
	if headerGuard == nil {
		return nil, false
	}
	headerPage := asHeaderPage(headerGuard.GetData())
	directoryIndex := headerPage.HashToDirectoryIndex(hash)
	directoryPageId := headerPage.GetDirectoryPageId(directoryIndex)
	headerGuard.Drop()
	if directoryPageId == types.InvalidPageID {
		return nil, false
	}

	directoryGuard := ht.bpm.FetchPageRead(directoryPageId)
	if directoryGuard == nil {
		return nil, false
	}
	directoryPage := asDirectoryPage(directoryGuard.GetData())
	bucketIndex := directoryPage.HashToBucketIndex(hash)
	bucketPageId := directoryPage.GetBucketPageId(bucketIndex)
	if bucketPageId == types.InvalidPageID {
		directoryGuard.Drop()
		return nil, false
	}

	bucketGuard := ht.bpm.FetchPageRead(bucketPageId)
	directoryGuard.Drop()
	if bucketGuard == nil {
		return nil, false
	}
	bucketPage := asBucketPage(bucketGuard.GetData())
	value, found := bucketPage.Lookup(key, ht.cmp)
	bucketGuard.Drop()

	if !found {
		return nil, false
	}
	return []uint64{value}, true
}

// Insert stores the pair. It returns false when the key is present already
// or when the bucket the key belongs to is full and the directory cannot
// grow any further.
func (ht *DiskExtendibleHashTable) Insert(key uint64, value uint64) bool {
	if _, found := ht.GetValue(key); found {
		return false
	}
	hash := ht.hashFn(key)

	headerGuard := ht.bpm.FetchPageWrite(ht.headerPageId)
	if headerGuard == nil {
		return false
	}
	headerPage := asHeaderPage(headerGuard.GetDataMut())
	directoryIndex := headerPage.HashToDirectoryIndex(hash)
	directoryPageId := headerPage.GetDirectoryPageId(directoryIndex)
	if directoryPageId == types.InvalidPageID {
		ret := ht.insertToNewDirectory(headerPage, directoryIndex, hash, key, value)
		headerGuard.Drop()
		return ret
	}
	headerGuard.Drop()

	directoryGuard := ht.bpm.FetchPageWrite(directoryPageId)
	if directoryGuard == nil {
		return false
	}
	directoryPage := asDirectoryPage(directoryGuard.GetDataMut())
	bucketIndex := directoryPage.HashToBucketIndex(hash)
	bucketPageId := directoryPage.GetBucketPageId(bucketIndex)
	if bucketPageId == types.InvalidPageID {
		ret := ht.insertToNewBucket(directoryPage, bucketIndex, key, value)
		directoryGuard.Drop()
		return ret
	}

	bucketGuard := ht.bpm.FetchPageWrite(bucketPageId)
	if bucketGuard == nil {
		directoryGuard.Drop()
		return false
	}
	bucketPage := asBucketPage(bucketGuard.GetDataMut())
	if bucketPage.Insert(key, value, ht.cmp) {
		bucketGuard.Drop()
		directoryGuard.Drop()
		return true
	}

	// the bucket is full. grow the directory when the bucket already
	// discriminates on every directory bit
	if directoryPage.GetLocalDepth(bucketIndex) == directoryPage.GetGlobalDepth() {
		if directoryPage.GetGlobalDepth() >= directoryPage.GetMaxDepth() {
			bucketGuard.Drop()
			directoryGuard.Drop()
			return false
		}
		directoryPage.IncrGlobalDepth()
	}

	if !ht.splitBucket(directoryPage, bucketPage, bucketIndex) {
		bucketGuard.Drop()
		directoryGuard.Drop()
		return false
	}
	bucketGuard.Drop()
	directoryGuard.Drop()

	return ht.Insert(key, value)
}

// Remove deletes the entry for key. Emptied buckets are merged with their
// split image and the directory shrinks while every bucket discriminates on
// fewer bits than the directory does.
func (ht *DiskExtendibleHashTable) Remove(key uint64) bool {
	hash := ht.hashFn(key)

	headerGuard := ht.bpm.FetchPageWrite(ht.headerPageId)
	if headerGuard == nil {
		return false
	}
	headerPage := asHeaderPage(headerGuard.GetData())
	directoryIndex := headerPage.HashToDirectoryIndex(hash)
	directoryPageId := headerPage.GetDirectoryPageId(directoryIndex)
	headerGuard.Drop()
	if directoryPageId == types.InvalidPageID {
		return false
	}

	directoryGuard := ht.bpm.FetchPageWrite(directoryPageId)
	if directoryGuard == nil {
		return false
	}
	directoryPage := asDirectoryPage(directoryGuard.GetDataMut())
	bucketIndex := directoryPage.HashToBucketIndex(hash)
	bucketPageId := directoryPage.GetBucketPageId(bucketIndex)
	if bucketPageId == types.InvalidPageID {
		directoryGuard.Drop()
		return false
	}

	bucketGuard := ht.bpm.FetchPageWrite(bucketPageId)
	if bucketGuard == nil {
		directoryGuard.Drop()
		return false
	}
	bucketPage := asBucketPage(bucketGuard.GetDataMut())
	removed := bucketPage.Remove(key, ht.cmp)
	bucketGuard.Drop()
	if !removed {
		directoryGuard.Drop()
		return false
	}

	ht.mergeEmptyBuckets(directoryPage, bucketIndex, bucketPageId)

	for directoryPage.CanShrink() {
		directoryPage.DecrGlobalDepth()
	}
	directoryGuard.Drop()
	return true
}

// mergeEmptyBuckets folds the bucket at bucketIndex into its split image for
// as long as one of the two is empty and both discriminate on the same bits.
// The caller holds the directory write guard.
func (ht *DiskExtendibleHashTable) mergeEmptyBuckets(directoryPage *page.ExtendibleHTableDirectoryPage,
	bucketIndex uint32, bucketPageId types.PageID) {
	checkPageId := bucketPageId
	checkGuard := ht.bpm.FetchPageRead(checkPageId)
	if checkGuard == nil {
		return
	}

	localDepth := directoryPage.GetLocalDepth(bucketIndex)
	for localDepth > 0 {
		siblingIndex := bucketIndex ^ (1 << (localDepth - 1))
		siblingLocalDepth := directoryPage.GetLocalDepth(siblingIndex)
		siblingPageId := directoryPage.GetBucketPageId(siblingIndex)

		siblingGuard := ht.bpm.FetchPageRead(siblingPageId)
		if siblingGuard == nil {
			break
		}
		checkPage := asBucketPage(checkGuard.GetData())
		siblingPage := asBucketPage(siblingGuard.GetData())
		if siblingLocalDepth != localDepth || (!checkPage.IsEmpty() && !siblingPage.IsEmpty()) {
			siblingGuard.Drop()
			break
		}

		// delete whichever side is empty and keep the other as the merged bucket
		if checkPage.IsEmpty() {
			checkGuard.Drop()
			ht.bpm.DeletePage(checkPageId)
			checkPageId = siblingPageId
			checkGuard = siblingGuard
		} else {
			siblingGuard.Drop()
			ht.bpm.DeletePage(siblingPageId)
		}

		directoryPage.DecrLocalDepth(bucketIndex)
		localDepth = directoryPage.GetLocalDepth(bucketIndex)
		mask := directoryPage.GetLocalDepthMask(bucketIndex)
		for i := uint32(0); i < directoryPage.Size(); i++ {
			if i&mask == bucketIndex&mask {
				directoryPage.SetBucketPageId(i, checkPageId)
				directoryPage.SetLocalDepth(i, uint8(localDepth))
			}
		}
	}
	checkGuard.Drop()
}

// insertToNewDirectory creates the directory page for directoryIndex and
// inserts the pair into its first bucket. The caller holds the header write
// guard.
func (ht *DiskExtendibleHashTable) insertToNewDirectory(headerPage *page.ExtendibleHTableHeaderPage,
	directoryIndex uint32, hash uint32, key uint64, value uint64) bool {
	newGuard := ht.bpm.NewPageGuarded()
	if newGuard == nil {
		return false
	}
	directoryGuard := newGuard.UpgradeWrite()
	directoryPage := asDirectoryPage(directoryGuard.GetDataMut())
	directoryPage.Init(ht.directoryMaxDepth)
	headerPage.SetDirectoryPageId(directoryIndex, directoryGuard.PageId())

	bucketIndex := directoryPage.HashToBucketIndex(hash)
	ret := ht.insertToNewBucket(directoryPage, bucketIndex, key, value)
	directoryGuard.Drop()
	return ret
}

// insertToNewBucket creates the bucket page for bucketIndex and inserts the
// pair into it. The caller holds a write guard on the owning directory.
func (ht *DiskExtendibleHashTable) insertToNewBucket(directoryPage *page.ExtendibleHTableDirectoryPage,
	bucketIndex uint32, key uint64, value uint64) bool {
	newGuard := ht.bpm.NewPageGuarded()
	if newGuard == nil {
		return false
	}
	bucketGuard := newGuard.UpgradeWrite()
	bucketPage := asBucketPage(bucketGuard.GetDataMut())
	bucketPage.Init(ht.bucketMaxSize)
	directoryPage.SetBucketPageId(bucketIndex, bucketGuard.PageId())

	ret := bucketPage.Insert(key, value, ht.cmp)
	bucketGuard.Drop()
	return ret
}

// splitBucket allocates the split image of the bucket at bucketIndex,
// retargets every aliasing directory entry and redistributes the drained
// entries across the two buckets. The caller holds write guards on both the
// directory and the bucket.
func (ht *DiskExtendibleHashTable) splitBucket(directoryPage *page.ExtendibleHTableDirectoryPage,
	bucketPage *page.ExtendibleHTableBucketPage, bucketIndex uint32) bool {
	newGuard := ht.bpm.NewPageGuarded()
	if newGuard == nil {
		return false
	}
	splitGuard := newGuard.UpgradeWrite()
	splitPageId := splitGuard.PageId()
	splitBucketPage := asBucketPage(splitGuard.GetDataMut())
	splitBucketPage.Init(ht.bucketMaxSize)

	oldPageId := directoryPage.GetBucketPageId(bucketIndex)
	newLocalDepth := directoryPage.GetLocalDepth(bucketIndex) + 1
	distinguishingBit := uint32(1) << (newLocalDepth - 1)
	splitBit := (bucketIndex ^ distinguishingBit) & distinguishingBit

	// every alias of the overflowing bucket deepens by one bit; aliases on
	// the split image side move over to the new page
	for i := uint32(0); i < directoryPage.Size(); i++ {
		if directoryPage.GetBucketPageId(i) != oldPageId {
			continue
		}
		directoryPage.SetLocalDepth(i, uint8(newLocalDepth))
		if i&distinguishingBit == splitBit {
			directoryPage.SetBucketPageId(i, splitPageId)
		}
	}

	// drain the full bucket, then deal every entry back out by its hash
	entries := queue.New()
	for i := uint32(0); i < bucketPage.Size(); i++ {
		entry := bucketPage.EntryAt(i)
		entries.Enqueue(pair.Pair[uint64, uint64]{First: entry.Key, Second: entry.Value})
	}
	bucketPage.Clear()

	for entries.Len() > 0 {
		entry := entries.Dequeue().(pair.Pair[uint64, uint64])
		targetIndex := directoryPage.HashToBucketIndex(ht.hashFn(entry.First))
		if directoryPage.GetBucketPageId(targetIndex) == splitPageId {
			splitBucketPage.Insert(entry.First, entry.Second, ht.cmp)
		} else {
			bucketPage.Insert(entry.First, entry.Second, ht.cmp)
		}
	}

	splitGuard.Drop()
	return true
}

// VerifyIntegrity walks every reachable directory and asserts the depth
// invariants plus the hash locality of every stored key
func (ht *DiskExtendibleHashTable) VerifyIntegrity() {
	headerGuard := ht.bpm.FetchPageRead(ht.headerPageId)
	common.SH_Assert(headerGuard != nil, "VerifyIntegrity: header page not fetchable")
	headerPage := asHeaderPage(headerGuard.GetData())

	for i := uint32(0); i < headerPage.MaxSize(); i++ {
		directoryPageId := headerPage.GetDirectoryPageId(i)
		if directoryPageId == types.InvalidPageID {
			continue
		}
		directoryGuard := ht.bpm.FetchPageRead(directoryPageId)
		common.SH_Assert(directoryGuard != nil, "VerifyIntegrity: directory page not fetchable")
		directoryPage := asDirectoryPage(directoryGuard.GetData())
		directoryPage.VerifyIntegrity()

		for j := uint32(0); j < directoryPage.Size(); j++ {
			bucketPageId := directoryPage.GetBucketPageId(j)
			if bucketPageId == types.InvalidPageID {
				continue
			}
			bucketGuard := ht.bpm.FetchPageRead(bucketPageId)
			common.SH_Assert(bucketGuard != nil, "VerifyIntegrity: bucket page not fetchable")
			bucketPage := asBucketPage(bucketGuard.GetData())
			mask := directoryPage.GetLocalDepthMask(j)
			for n := uint32(0); n < bucketPage.Size(); n++ {
				hash := ht.hashFn(bucketPage.KeyAt(n))
				common.SH_Assert(hash&mask == j&mask, "VerifyIntegrity: key stored in a bucket its hash does not map to")
			}
			bucketGuard.Drop()
		}
		directoryGuard.Drop()
	}
	headerGuard.Drop()
}

func asHeaderPage(data *[common.PageSize]byte) *page.ExtendibleHTableHeaderPage {
	return (*page.ExtendibleHTableHeaderPage)(unsafe.Pointer(data))
}

func asDirectoryPage(data *[common.PageSize]byte) *page.ExtendibleHTableDirectoryPage {
	return (*page.ExtendibleHTableDirectoryPage)(unsafe.Pointer(data))
}

func asBucketPage(data *[common.PageSize]byte) *page.ExtendibleHTableBucketPage {
	return (*page.ExtendibleHTableBucketPage)(unsafe.Pointer(data))
}
