package buffer

import (
	"fmt"

	"github.com/ncw/directio"
	"github.com/sasha-s/go-deadlock"

	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/storage/disk"
	"github.com/mfukuda/UnagiDB/storage/page"
	"github.com/mfukuda/UnagiDB/types"
)

// BufferPoolManager represents the buffer pool manager
type BufferPoolManager struct {
	diskManager   disk.DiskManager
	diskScheduler *disk.DiskScheduler
	pages         []*page.Page // index is FrameID. frame addresses are stable for the pool lifetime
	replacer      *LRUKReplacer
	freeList      []FrameID
	pageTable     map[types.PageID]FrameID
	nextPageID    types.PageID
	mutex         *deadlock.Mutex
}

// NewBufferPoolManager returns an empty buffer pool manager.
// All I/O is funneled through a DiskScheduler owned by the pool; the disk
// manager is only called directly for page id accounting.
func NewBufferPoolManager(poolSize uint32, replacerK uint32, diskManager disk.DiskManager) *BufferPoolManager {
	freeList := make([]FrameID, poolSize)
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
		pages[i] = page.NewFrame((*[common.PageSize]byte)(directio.AlignedBlock(common.PageSize)))
	}

	replacer := NewLRUKReplacer(poolSize, replacerK)
	scheduler := disk.NewDiskScheduler(diskManager)
	nextPageID := types.PageID(diskManager.Size() / common.PageSize)
	return &BufferPoolManager{diskManager, scheduler, pages, replacer, freeList,
		make(map[types.PageID]FrameID), nextPageID, new(deadlock.Mutex)}
}

// NewPage allocates a fresh page id and places it in a pinned frame.
// Returns nil when every frame is pinned.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.mutex.Lock()

	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		b.mutex.Unlock()
		return nil
	}

	pg := b.pages[*frameID]
	if !isFromFreeList {
		b.cacheOutPage(pg)
	}

	pageID := b.allocatePage()
	pg.SetPageId(pageID)
	pg.SetPinCount(1)
	pg.SetIsDirty(false)
	pg.ResetMemory()

	b.pageTable[pageID] = *frameID
	b.replacer.RecordAccess(*frameID, AccessTypeUnknown)
	b.replacer.SetEvictable(*frameID, false)

	b.mutex.Unlock()

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "NewPage: returned pageID: %d\n", pageID)
	}
	return pg
}

// FetchPage fetches the requested page from the buffer pool.
func (b *BufferPoolManager) FetchPage(pageID types.PageID, accessType AccessType) *page.Page {
	if pageID == types.InvalidPageID {
		return nil
	}

	// if it is on buffer pool return it
	b.mutex.Lock()
	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.RecordAccess(frameID, accessType)
		b.replacer.SetEvictable(frameID, false)
		b.mutex.Unlock()
		if common.EnableDebug {
			common.ShPrintf(common.DEBUG_INFO, "FetchPage: PageId=%d PinCount=%d\n", pg.GetPageId(), pg.PinCount())
		}
		return pg
	}

	// get a frame from the free list or from the replacer
	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		b.mutex.Unlock()
		return nil
	}

	pg := b.pages[*frameID]
	if !isFromFreeList {
		b.cacheOutPage(pg)
	}

	pg.SetPageId(pageID)
	pg.SetPinCount(1)
	pg.SetIsDirty(false)
	pg.ResetMemory()

	b.pageTable[pageID] = *frameID
	b.replacer.RecordAccess(*frameID, accessType)
	b.replacer.SetEvictable(*frameID, false)

	request := b.diskScheduler.NewReadRequest(pageID, pg.Data()[:])
	b.diskScheduler.Schedule(request)
	if ok := <-request.Callback; !ok {
		// hand the frame back. the read never happened, so the frame is clean
		delete(b.pageTable, pageID)
		pg.SetPageId(types.InvalidPageID)
		pg.SetPinCount(0)
		b.replacer.SetEvictable(*frameID, true)
		b.replacer.Remove(*frameID)
		b.freeList = append(b.freeList, *frameID)
		b.mutex.Unlock()
		return nil
	}
	b.mutex.Unlock()

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "FetchPage: PageId=%d PinCount=%d\n", pg.GetPageId(), pg.PinCount())
	}
	return pg
}

// UnpinPage unpins the target page from the buffer pool.
// The dirty flag is OR-ed in: once a page is dirty only a write-back clears it.
// Returns false when the page is absent or its pin count is already zero.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool, accessType AccessType) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() <= 0 {
		return false
	}

	pg.DecPinCount()
	if pg.PinCount() == 0 {
		b.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes the target page back to disk regardless of its dirty flag
// and clears the flag. Returns false when the page is not resident.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}
	b.writePageToDisk(b.pages[frameID])
	return true
}

// FlushAllPages writes every resident page back and clears its dirty flag
func (b *BufferPoolManager) FlushAllPages() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, pg := range b.pages {
		if pg.GetPageId() == types.InvalidPageID {
			continue
		}
		b.writePageToDisk(pg)
	}
}

// DeletePage drops a page from the buffer pool and deallocates its id.
// Pinned pages cannot be deleted. Deleting a page that is not resident
// succeeds: there is nothing to free in the pool.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	if pageID == types.InvalidPageID {
		return true
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		if pg.PinCount() > 0 {
			return false
		}
		delete(b.pageTable, pageID)
		b.freeList = append(b.freeList, frameID)
		b.replacer.Remove(frameID)
		pg.ResetMemory()
		pg.SetPageId(types.InvalidPageID)
		pg.SetIsDirty(false)
		pg.SetPinCount(0)
	}
	b.diskManager.DeallocatePage(pageID)
	return true
}

// ShutDown drains and stops the disk scheduler. The pool does not flush on
// shutdown; callers needing durability invoke FlushAllPages first.
func (b *BufferPoolManager) ShutDown() {
	b.diskScheduler.ShutDown()
}

// GetPoolSize returns the number of frames
func (b *BufferPoolManager) GetPoolSize() int {
	return len(b.pages)
}

// GetPages returns the frame array
func (b *BufferPoolManager) GetPages() []*page.Page {
	return b.pages
}

// allocatePage hands out page ids monotonically. ids are never reused
// in-process. caller must hold the pool latch
func (b *BufferPoolManager) allocatePage() types.PageID {
	ret := b.nextPageID
	b.nextPageID++
	return ret
}

// cacheOutPage detaches a victim frame's current page, writing it back first
// when dirty. caller must hold the pool latch
func (b *BufferPoolManager) cacheOutPage(pg *page.Page) {
	if pg.GetPageId() == types.InvalidPageID {
		return
	}
	if pg.PinCount() != 0 {
		panic(fmt.Sprintf("BPM::cacheOutPage pin count of page to be cached out must be zero!!!. pageId:%d PinCount:%d", pg.GetPageId(), pg.PinCount()))
	}
	if common.EnableDebug && common.ActiveLogKindSetting&common.CACHE_OUT_IN_INFO > 0 {
		common.ShPrintf(common.DEBUG_INFO, "BPM::cacheOutPage Cache out occurs! pageId:%d\n", pg.GetPageId())
	}
	if pg.IsDirty() {
		b.writePageToDisk(pg)
	}
	delete(b.pageTable, pg.GetPageId())
}

// writePageToDisk blocks on the scheduler future. this is a suspension point
// under the pool latch; the worker never calls back into the pool, so no
// cycle can form. caller must hold the pool latch
func (b *BufferPoolManager) writePageToDisk(pg *page.Page) {
	request := b.diskScheduler.NewWriteRequest(pg.GetPageId(), pg.Data()[:])
	b.diskScheduler.Schedule(request)
	if ok := <-request.Callback; !ok {
		panic(fmt.Sprintf("BPM::writePageToDisk write of page %d failed", pg.GetPageId()))
	}
	pg.SetIsDirty(false)
}

func (b *BufferPoolManager) getFrameID() (*FrameID, bool) {
	if len(b.freeList) > 0 {
		frameID, newFreeList := b.freeList[0], b.freeList[1:]
		b.freeList = newFreeList

		return &frameID, true
	}

	if frameID, ok := b.replacer.Evict(); ok {
		return &frameID, false
	}
	return nil, false
}
