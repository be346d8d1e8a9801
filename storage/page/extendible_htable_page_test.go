package page

import (
	"testing"
	"unsafe"

	"github.com/mfukuda/UnagiDB/common"
	testingpkg "github.com/mfukuda/UnagiDB/testing/testing_assert"
	"github.com/mfukuda/UnagiDB/types"
)

func TestPageLayoutsFitInAPage(t *testing.T) {
	testingpkg.SimpleAssert(t, unsafe.Sizeof(ExtendibleHTableHeaderPage{}) <= common.PageSize)
	testingpkg.SimpleAssert(t, unsafe.Sizeof(ExtendibleHTableDirectoryPage{}) <= common.PageSize)
	testingpkg.SimpleAssert(t, unsafe.Sizeof(ExtendibleHTableBucketPage{}) <= common.PageSize)
}

func TestHeaderPage(t *testing.T) {
	var header ExtendibleHTableHeaderPage
	header.Init(2)

	testingpkg.Equals(t, uint32(4), header.MaxSize())
	for i := uint32(0); i < header.MaxSize(); i++ {
		testingpkg.Equals(t, types.InvalidPageID, header.GetDirectoryPageId(i))
	}

	// the top maxDepth bits select the directory
	testingpkg.Equals(t, uint32(0), header.HashToDirectoryIndex(0x0fffffff))
	testingpkg.Equals(t, uint32(1), header.HashToDirectoryIndex(0x4fffffff))
	testingpkg.Equals(t, uint32(2), header.HashToDirectoryIndex(0x8fffffff))
	testingpkg.Equals(t, uint32(3), header.HashToDirectoryIndex(0xcfffffff))

	header.SetDirectoryPageId(1, types.PageID(7))
	testingpkg.Equals(t, types.PageID(7), header.GetDirectoryPageId(1))

	// a zero depth header maps every hash to slot 0
	var flat ExtendibleHTableHeaderPage
	flat.Init(0)
	testingpkg.Equals(t, uint32(0), flat.HashToDirectoryIndex(0xffffffff))
	testingpkg.Equals(t, uint32(1), flat.MaxSize())
}

func TestDirectoryPage(t *testing.T) {
	var directory ExtendibleHTableDirectoryPage
	directory.Init(3)

	testingpkg.Equals(t, uint32(0), directory.GetGlobalDepth())
	testingpkg.Equals(t, uint32(1), directory.Size())
	testingpkg.Equals(t, uint32(8), directory.MaxSize())

	directory.SetBucketPageId(0, types.PageID(10))
	testingpkg.Equals(t, types.PageID(10), directory.GetBucketPageId(0))

	// growing clones the lower half: same page ids, same local depths
	directory.IncrGlobalDepth()
	testingpkg.Equals(t, uint32(1), directory.GetGlobalDepth())
	testingpkg.Equals(t, types.PageID(10), directory.GetBucketPageId(1))
	testingpkg.Equals(t, directory.GetLocalDepth(0), directory.GetLocalDepth(1))

	directory.SetBucketPageId(1, types.PageID(11))
	directory.SetLocalDepth(0, 1)
	directory.SetLocalDepth(1, 1)

	testingpkg.Equals(t, uint32(0), directory.HashToBucketIndex(0x2))
	testingpkg.Equals(t, uint32(1), directory.HashToBucketIndex(0x3))

	// the split image differs in exactly bit localDepth-1
	testingpkg.Equals(t, uint32(1), directory.GetSplitImageIndex(0))
	testingpkg.Equals(t, uint32(0), directory.GetSplitImageIndex(1))
	testingpkg.Equals(t, uint32(1), directory.GetLocalDepthMask(0))

	// every bucket still discriminates on all directory bits, so no shrink
	testingpkg.SimpleAssert(t, !directory.CanShrink())
	directory.VerifyIntegrity()

	directory.IncrGlobalDepth()
	testingpkg.Equals(t, uint32(4), directory.Size())
	directory.VerifyIntegrity()
	testingpkg.SimpleAssert(t, directory.CanShrink())
	directory.DecrGlobalDepth()
	testingpkg.Equals(t, uint32(1), directory.GetGlobalDepth())

	directory.DecrLocalDepth(0)
	directory.DecrLocalDepth(1)
	directory.SetBucketPageId(1, types.PageID(10))
	testingpkg.SimpleAssert(t, directory.CanShrink())
	directory.DecrGlobalDepth()
	testingpkg.Equals(t, uint32(0), directory.GetGlobalDepth())
	testingpkg.SimpleAssert(t, !directory.CanShrink())
	directory.VerifyIntegrity()
}

func TestBucketPage(t *testing.T) {
	cmp := func(a uint64, b uint64) int {
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	}

	var bucket ExtendibleHTableBucketPage
	bucket.Init(10)
	testingpkg.SimpleAssert(t, bucket.IsEmpty())

	for i := uint64(0); i < 10; i++ {
		testingpkg.SimpleAssert(t, bucket.Insert(i, i*100, cmp))
	}
	testingpkg.SimpleAssert(t, bucket.IsFull())
	testingpkg.Equals(t, uint32(10), bucket.Size())

	// duplicate keys and inserts into a full bucket are refused
	testingpkg.SimpleAssert(t, !bucket.Insert(5, 42, cmp))
	testingpkg.SimpleAssert(t, !bucket.Insert(11, 42, cmp))

	value, found := bucket.Lookup(7, cmp)
	testingpkg.SimpleAssert(t, found)
	testingpkg.Equals(t, uint64(700), value)

	_, found = bucket.Lookup(11, cmp)
	testingpkg.SimpleAssert(t, !found)

	// remove swaps with the last entry; order is not preserved
	testingpkg.SimpleAssert(t, bucket.Remove(0, cmp))
	testingpkg.SimpleAssert(t, !bucket.Remove(0, cmp))
	testingpkg.Equals(t, uint32(9), bucket.Size())
	testingpkg.Equals(t, uint64(9), bucket.KeyAt(0))
	testingpkg.Equals(t, uint64(900), bucket.ValueAt(0))

	for i := uint64(1); i < 10; i++ {
		testingpkg.SimpleAssert(t, bucket.Remove(i, cmp))
	}
	testingpkg.SimpleAssert(t, bucket.IsEmpty())

	bucket.Insert(1, 1, cmp)
	bucket.Clear()
	testingpkg.SimpleAssert(t, bucket.IsEmpty())
}
