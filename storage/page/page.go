package page

import (
	"sync/atomic"

	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/types"
)

/**
 * Page is the basic unit of storage within the database system. Page provides a wrapper for actual data pages being
 * held in main memory. Page also contains book-keeping information that is used by the buffer pool manager, e.g.
 * pin count, dirty flag, page id, etc.
 *
 * A Page object is bound to one buffer pool frame for the lifetime of the
 * pool. The identity of the logical page it holds changes over time; the
 * backing buffer never moves.
 */
type Page struct {
	id       types.PageID // identifies the page. It is used to find the offset of the page on disk
	pinCount int32        // counts how many goroutines are accessing it
	isDirty  bool         // the page was modified but not flushed
	data     *[common.PageSize]byte
	rwlatch_ common.ReaderWriterLatch
}

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	atomic.AddInt32(&p.pinCount, 1)
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	atomic.AddInt32(&p.pinCount, -1)
}

// PinCount returns the pin count
func (p *Page) PinCount() int32 {
	return atomic.LoadInt32(&p.pinCount)
}

// SetPinCount overwrites the pin count. Only the buffer pool calls this,
// under its own latch, when a frame is (re)assigned to a logical page.
func (p *Page) SetPinCount(pinCount int32) {
	atomic.StoreInt32(&p.pinCount, pinCount)
}

// GetPageId returns the page id
func (p *Page) GetPageId() types.PageID {
	return p.id
}

// SetPageId rebinds the frame to another logical page
func (p *Page) SetPageId(pageId types.PageID) {
	p.id = pageId
}

// Data returns the data of the page
func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

// SetIsDirty sets the isDirty bit
func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

// IsDirty check if the page is dirty
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// ResetMemory zeroes the whole buffer
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// Copy copies data to the page's data
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

// NewFrame wraps an externally allocated PageSize buffer into an unoccupied frame
func NewFrame(data *[common.PageSize]byte) *Page {
	return &Page{types.InvalidPageID, int32(0), false, data, common.NewRWLatch()}
}

/** Acquire the page write latch. */
func (p *Page) WLatch() {
	p.rwlatch_.WLock()
}

/** Release the page write latch. */
func (p *Page) WUnlatch() {
	p.rwlatch_.WUnlock()
}

/** Acquire the page read latch. */
func (p *Page) RLatch() {
	p.rwlatch_.RLock()
}

/** Release the page read latch. */
func (p *Page) RUnlatch() {
	p.rwlatch_.RUnlock()
}
