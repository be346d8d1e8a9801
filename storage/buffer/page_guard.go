package buffer

import (
	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/storage/page"
	"github.com/mfukuda/UnagiDB/types"
)

/**
 * Page guards are scoped handles around a fetched page. A guard owns one pin
 * and, for the latched variants, the page latch in the matching mode. Drop
 * releases the latch first and unpins afterwards, so a guard never holds a
 * page latch while inside the pool. Guards are single-use: once Drop has run,
 * Drop is a no-op, PageId returns InvalidPageID, GetData and GetDataMut
 * return nil, and UpgradeRead/UpgradeWrite panic. Each guard must only be
 * used from the goroutine that created it.
 */

// BasicPageGuard holds a pin on a page without latching it
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *page.Page
	isDirty bool
}

// NewPageGuarded allocates a new page and wraps it in a basic guard.
// Returns nil when no frame is evictable.
func (b *BufferPoolManager) NewPageGuarded() *BasicPageGuard {
	pg := b.NewPage()
	if pg == nil {
		return nil
	}
	return &BasicPageGuard{b, pg, false}
}

// FetchPageBasic fetches a page and wraps it in a basic guard.
// Returns nil when the page cannot be brought in.
func (b *BufferPoolManager) FetchPageBasic(pageID types.PageID) *BasicPageGuard {
	pg := b.FetchPage(pageID, AccessTypeUnknown)
	if pg == nil {
		return nil
	}
	return &BasicPageGuard{b, pg, false}
}

// FetchPageRead fetches a page and read latches it
func (b *BufferPoolManager) FetchPageRead(pageID types.PageID) *ReadPageGuard {
	pg := b.FetchPage(pageID, AccessTypeUnknown)
	if pg == nil {
		return nil
	}
	pg.RLatch()
	return &ReadPageGuard{BasicPageGuard{b, pg, false}}
}

// FetchPageWrite fetches a page and write latches it
func (b *BufferPoolManager) FetchPageWrite(pageID types.PageID) *WritePageGuard {
	pg := b.FetchPage(pageID, AccessTypeUnknown)
	if pg == nil {
		return nil
	}
	pg.WLatch()
	return &WritePageGuard{BasicPageGuard{b, pg, false}}
}

// Drop gives the pin back. Calling Drop twice is a no-op.
func (g *BasicPageGuard) Drop() {
	if g.page == nil {
		return
	}
	g.bpm.UnpinPage(g.page.GetPageId(), g.isDirty, AccessTypeUnknown)
	g.page = nil
	g.bpm = nil
}

// PageId returns the id of the guarded page
func (g *BasicPageGuard) PageId() types.PageID {
	if g.page == nil {
		return types.InvalidPageID
	}
	return g.page.GetPageId()
}

// GetData exposes a readonly view of the page body
func (g *BasicPageGuard) GetData() *[common.PageSize]byte {
	if g.page == nil {
		return nil
	}
	return g.page.Data()
}

// GetDataMut exposes a mutable view of the page body and marks the guard dirty
func (g *BasicPageGuard) GetDataMut() *[common.PageSize]byte {
	if g.page == nil {
		return nil
	}
	g.isDirty = true
	return g.page.Data()
}

// UpgradeRead converts the guard into a read latched one. The pin carries
// over; the basic guard is consumed.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	common.SH_Assert(g.page != nil, "UpgradeRead on a dropped guard")
	g.page.RLatch()
	ret := &ReadPageGuard{BasicPageGuard{g.bpm, g.page, g.isDirty}}
	g.page = nil
	g.bpm = nil
	return ret
}

// UpgradeWrite converts the guard into a write latched one. The pin carries
// over; the basic guard is consumed.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	common.SH_Assert(g.page != nil, "UpgradeWrite on a dropped guard")
	g.page.WLatch()
	ret := &WritePageGuard{BasicPageGuard{g.bpm, g.page, g.isDirty}}
	g.page = nil
	g.bpm = nil
	return ret
}

// ReadPageGuard additionally holds the page read latch
type ReadPageGuard struct {
	guard BasicPageGuard
}

// Drop releases the read latch, then the pin
func (g *ReadPageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.RUnlatch()
	g.guard.Drop()
}

// PageId returns the id of the guarded page
func (g *ReadPageGuard) PageId() types.PageID {
	return g.guard.PageId()
}

// GetData exposes a readonly view of the page body
func (g *ReadPageGuard) GetData() *[common.PageSize]byte {
	return g.guard.GetData()
}

// WritePageGuard additionally holds the page write latch
type WritePageGuard struct {
	guard BasicPageGuard
}

// Drop releases the write latch, then the pin
func (g *WritePageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.WUnlatch()
	g.guard.Drop()
}

// PageId returns the id of the guarded page
func (g *WritePageGuard) PageId() types.PageID {
	return g.guard.PageId()
}

// GetData exposes a readonly view of the page body
func (g *WritePageGuard) GetData() *[common.PageSize]byte {
	return g.guard.GetData()
}

// GetDataMut exposes a mutable view of the page body and marks the guard dirty
func (g *WritePageGuard) GetDataMut() *[common.PageSize]byte {
	return g.guard.GetDataMut()
}
