package page

import (
	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/types"
)

const HTableHeaderMaxDepth = 9
const HTableHeaderArraySize = 1 << HTableHeaderMaxDepth

/**
 * Header page format:
 *  ---------------------------------------------------
 * | DirectoryPageIds(2048) | MaxDepth (4) | Free(2044)
 *  ---------------------------------------------------
 *
 * The header fans the top MaxDepth bits of a hash out to directory pages.
 * Entries are populated lazily: a slot holding InvalidPageID means no
 * directory page has been created for that prefix yet.
 */
type ExtendibleHTableHeaderPage struct {
	directoryPageIds [HTableHeaderArraySize]types.PageID
	maxDepth         uint32
}

// Init sets up a freshly allocated header page. maxDepth may be at most
// HTableHeaderMaxDepth.
func (p *ExtendibleHTableHeaderPage) Init(maxDepth uint32) {
	common.SH_Assert(maxDepth <= HTableHeaderMaxDepth, "header max depth out of range")
	p.maxDepth = maxDepth
	for i := 0; i < HTableHeaderArraySize; i++ {
		p.directoryPageIds[i] = types.InvalidPageID
	}
}

// HashToDirectoryIndex maps the top maxDepth bits of hash to a directory index.
// With maxDepth 0 every hash maps to slot 0.
func (p *ExtendibleHTableHeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	return hash >> (32 - p.maxDepth)
}

// GetDirectoryPageId returns the directory page id at index
func (p *ExtendibleHTableHeaderPage) GetDirectoryPageId(index uint32) types.PageID {
	return p.directoryPageIds[index]
}

// SetDirectoryPageId registers a directory page for index
func (p *ExtendibleHTableHeaderPage) SetDirectoryPageId(index uint32, directoryPageId types.PageID) {
	p.directoryPageIds[index] = directoryPageId
}

// MaxSize returns the number of directory slots the header addresses
func (p *ExtendibleHTableHeaderPage) MaxSize() uint32 {
	return 1 << p.maxDepth
}
