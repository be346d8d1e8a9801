package page

import (
	"github.com/mfukuda/UnagiDB/types"
)

// RID is the record identifier for a tuple: the page the tuple lives on and
// its slot within that page. The hash index stores RIDs packed into uint64
// values.
type RID struct {
	PageId  types.PageID
	SlotNum uint32
}

// Set sets the recod identifier
func (r *RID) Set(pageId types.PageID, slot uint32) {
	r.PageId = pageId
	r.SlotNum = slot
}

// GetPageId returns the page id
func (r *RID) GetPageId() types.PageID {
	return r.PageId
}

// GetSlotNum returns the slot number
func (r *RID) GetSlotNum() uint32 {
	return r.SlotNum
}

// Pack encodes the RID into a single uint64 index value
func (r *RID) Pack() uint64 {
	return uint64(uint32(r.PageId))<<32 | uint64(r.SlotNum)
}

// UnpackRID decodes a packed index value back into a RID
func UnpackRID(value uint64) RID {
	return RID{types.PageID(int32(value >> 32)), uint32(value)}
}
