package page

import (
	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/types"
)

const HTableDirectoryMaxDepth = 9
const HTableDirectoryArraySize = 1 << HTableDirectoryMaxDepth

/**
 * Directory page format:
 *  --------------------------------------------------------------------------------------
 * | MaxDepth (4) | GlobalDepth (4) | LocalDepths (512) | BucketPageIds(2048) | Free(1528)
 *  --------------------------------------------------------------------------------------
 *
 * Maps the low GlobalDepth bits of a hash to a bucket page. Several directory
 * entries may alias the same bucket; all aliases of a bucket carry the same
 * local depth and agree on the low LocalDepth bits of their index.
 */
type ExtendibleHTableDirectoryPage struct {
	maxDepth      uint32
	globalDepth   uint32
	localDepths   [HTableDirectoryArraySize]uint8
	bucketPageIds [HTableDirectoryArraySize]types.PageID
}

// Init sets up a freshly allocated directory page with global depth 0
func (p *ExtendibleHTableDirectoryPage) Init(maxDepth uint32) {
	common.SH_Assert(maxDepth <= HTableDirectoryMaxDepth, "directory max depth out of range")
	p.maxDepth = maxDepth
	p.globalDepth = 0
	for i := 0; i < HTableDirectoryArraySize; i++ {
		p.localDepths[i] = 0
		p.bucketPageIds[i] = types.InvalidPageID
	}
}

// HashToBucketIndex masks hash down to the active directory range
func (p *ExtendibleHTableDirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	return hash & p.GetGlobalDepthMask()
}

// GetBucketPageId returns the bucket page id at bucketIdx
func (p *ExtendibleHTableDirectoryPage) GetBucketPageId(bucketIdx uint32) types.PageID {
	return p.bucketPageIds[bucketIdx]
}

// SetBucketPageId points bucketIdx at bucketPageId
func (p *ExtendibleHTableDirectoryPage) SetBucketPageId(bucketIdx uint32, bucketPageId types.PageID) {
	p.bucketPageIds[bucketIdx] = bucketPageId
}

// GetSplitImageIndex returns the directory index whose entry differs from
// bucketIdx in exactly bit localDepth-1. The result is meaningless when the
// local depth of bucketIdx is 0; callers guard against that before splitting
// or merging.
func (p *ExtendibleHTableDirectoryPage) GetSplitImageIndex(bucketIdx uint32) uint32 {
	localDepth := uint32(p.localDepths[bucketIdx])
	if localDepth == 0 {
		return bucketIdx
	}
	return bucketIdx ^ (1 << (localDepth - 1))
}

// GetGlobalDepthMask returns the mask of globalDepth 1's
func (p *ExtendibleHTableDirectoryPage) GetGlobalDepthMask() uint32 {
	return (1 << p.globalDepth) - 1
}

// GetLocalDepthMask returns the mask of localDepth 1's for bucketIdx
func (p *ExtendibleHTableDirectoryPage) GetLocalDepthMask(bucketIdx uint32) uint32 {
	return (1 << uint32(p.localDepths[bucketIdx])) - 1
}

// GetGlobalDepth returns the number of hash bits the directory currently indexes on
func (p *ExtendibleHTableDirectoryPage) GetGlobalDepth() uint32 {
	return p.globalDepth
}

// GetMaxDepth returns the upper bound for the global depth
func (p *ExtendibleHTableDirectoryPage) GetMaxDepth() uint32 {
	return p.maxDepth
}

// IncrGlobalDepth doubles the directory, cloning the lower half into the
// upper half (same page ids, same local depths)
func (p *ExtendibleHTableDirectoryPage) IncrGlobalDepth() {
	common.SH_Assert(p.globalDepth < p.maxDepth, "directory cannot grow past max depth")
	half := uint32(1) << p.globalDepth
	for i := uint32(0); i < half; i++ {
		p.bucketPageIds[half+i] = p.bucketPageIds[i]
		p.localDepths[half+i] = p.localDepths[i]
	}
	p.globalDepth++
}

// DecrGlobalDepth halves the directory
func (p *ExtendibleHTableDirectoryPage) DecrGlobalDepth() {
	common.SH_Assert(p.globalDepth > 0, "directory global depth is already zero")
	p.globalDepth--
}

// CanShrink reports whether every active entry has a local depth strictly
// below the global depth
func (p *ExtendibleHTableDirectoryPage) CanShrink() bool {
	if p.globalDepth == 0 {
		return false
	}
	for i := uint32(0); i < p.Size(); i++ {
		if uint32(p.localDepths[i]) == p.globalDepth {
			return false
		}
	}
	return true
}

// Size returns the number of active directory entries
func (p *ExtendibleHTableDirectoryPage) Size() uint32 {
	return 1 << p.globalDepth
}

// MaxSize returns the size the directory may grow to
func (p *ExtendibleHTableDirectoryPage) MaxSize() uint32 {
	return 1 << p.maxDepth
}

// GetLocalDepth returns the local depth of bucketIdx
func (p *ExtendibleHTableDirectoryPage) GetLocalDepth(bucketIdx uint32) uint32 {
	return uint32(p.localDepths[bucketIdx])
}

// SetLocalDepth overwrites the local depth of bucketIdx
func (p *ExtendibleHTableDirectoryPage) SetLocalDepth(bucketIdx uint32, localDepth uint8) {
	p.localDepths[bucketIdx] = localDepth
}

// IncrLocalDepth bumps the local depth of bucketIdx
func (p *ExtendibleHTableDirectoryPage) IncrLocalDepth(bucketIdx uint32) {
	p.localDepths[bucketIdx]++
}

// DecrLocalDepth lowers the local depth of bucketIdx
func (p *ExtendibleHTableDirectoryPage) DecrLocalDepth(bucketIdx uint32) {
	p.localDepths[bucketIdx]--
}

// VerifyIntegrity asserts the directory invariants:
// every active entry has localDepth <= globalDepth, aliases of one bucket
// page share a local depth, and each bucket page is referenced by exactly
// 2^(globalDepth-localDepth) entries.
func (p *ExtendibleHTableDirectoryPage) VerifyIntegrity() {
	pageIdToCount := make(map[types.PageID]uint32)
	pageIdToLd := make(map[types.PageID]uint32)

	for i := uint32(0); i < p.Size(); i++ {
		pageId := p.bucketPageIds[i]
		ld := uint32(p.localDepths[i])
		common.SH_Assert(ld <= p.globalDepth, "local depth exceeds global depth")

		pageIdToCount[pageId] += 1
		if knownLd, ok := pageIdToLd[pageId]; ok {
			common.SH_Assert(ld == knownLd, "aliases of one bucket disagree on local depth")
		} else {
			pageIdToLd[pageId] = ld
		}
	}

	for pageId, count := range pageIdToCount {
		required := uint32(1) << (p.globalDepth - pageIdToLd[pageId])
		common.SH_Assert(count == required, "bucket alias count does not match local depth")
	}
}
