package buffer

import (
	"container/list"
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// FrameID is the type for frame id
type FrameID uint32

// AccessType describes what kind of operation touched a page. It is carried
// through RecordAccess for future policy tuning; the current policy ignores it.
type AccessType int32

const (
	AccessTypeUnknown AccessType = iota
	AccessTypeLookup
	AccessTypeScan
	AccessTypeIndex
)

type lruKEntry struct {
	hitCount    uint64
	isEvictable bool
	pos         *list.Element // position in historyList while hitCount < k, in cachedList afterwards
}

/**
 * LRUKReplacer picks the victim frame whose kth most recent access lies
 * furthest in the past. Frames with fewer than k recorded accesses are
 * treated as having an infinite backward distance and are victimized first,
 * in FIFO order of their first access. Frames with k or more accesses are
 * kept in classic LRU order of their most recent access.
 */
type LRUKReplacer struct {
	historyList  *list.List // frames with fewer than k accesses. oldest at the back
	cachedList   *list.List // frames with at least k accesses. least recently used at the back
	entries      map[FrameID]*lruKEntry
	currSize     uint32 // number of evictable frames
	replacerSize uint32
	k            uint64
	latch        deadlock.Mutex
}

// NewLRUKReplacer instantiates a replacer tracking up to numFrames frames
func NewLRUKReplacer(numFrames uint32, k uint32) *LRUKReplacer {
	return &LRUKReplacer{
		historyList:  list.New(),
		cachedList:   list.New(),
		entries:      make(map[FrameID]*lruKEntry),
		replacerSize: numFrames,
		k:            uint64(k),
	}
}

// Evict removes and returns the evictable frame with the largest backward
// k-distance. The history list is drained before the cached list is
// considered. Returns false when no frame is evictable.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	for e := r.historyList.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(FrameID)
		if r.entries[frameID].isEvictable {
			r.historyList.Remove(e)
			delete(r.entries, frameID)
			r.currSize--
			return frameID, true
		}
	}

	for e := r.cachedList.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(FrameID)
		if r.entries[frameID].isEvictable {
			r.cachedList.Remove(e)
			delete(r.entries, frameID)
			r.currSize--
			return frameID, true
		}
	}

	return 0, false
}

// RecordAccess notes a single access to frameID. Evictability is not touched.
func (r *LRUKReplacer) RecordAccess(frameID FrameID, accessType AccessType) {
	r.latch.Lock()
	defer r.latch.Unlock()
	r.checkFrameID(frameID)

	entry, ok := r.entries[frameID]
	if !ok {
		entry = &lruKEntry{}
		r.entries[frameID] = entry
	}

	entry.hitCount++
	switch {
	case entry.hitCount == 1:
		entry.pos = r.historyList.PushFront(frameID)
	case entry.hitCount == r.k:
		r.historyList.Remove(entry.pos)
		entry.pos = r.cachedList.PushFront(frameID)
	case entry.hitCount > r.k:
		r.cachedList.MoveToFront(entry.pos)
	}
	// 1 < hitCount < k: the frame keeps its slot in the history list (FIFO)
}

// SetEvictable flips the evictability of frameID and adjusts the replacer size.
// Unknown frames are ignored.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, setEvictable bool) {
	r.latch.Lock()
	defer r.latch.Unlock()
	r.checkFrameID(frameID)

	entry, ok := r.entries[frameID]
	if !ok {
		return
	}
	if !entry.isEvictable && setEvictable {
		r.currSize++
	} else if entry.isEvictable && !setEvictable {
		r.currSize--
	}
	entry.isEvictable = setEvictable
}

// Remove drops frameID from the replacer together with its access history.
// Removing a non-evictable frame is a logic error. Unknown frames are a no-op.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()
	r.checkFrameID(frameID)

	entry, ok := r.entries[frameID]
	if !ok {
		return
	}
	if !entry.isEvictable {
		panic(fmt.Sprintf("LRUKReplacer::Remove frame %d is not evictable", frameID))
	}
	if entry.hitCount < r.k {
		r.historyList.Remove(entry.pos)
	} else {
		r.cachedList.Remove(entry.pos)
	}
	delete(r.entries, frameID)
	r.currSize--
}

// Size returns the number of evictable frames
func (r *LRUKReplacer) Size() uint32 {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.currSize
}

func (r *LRUKReplacer) checkFrameID(frameID FrameID) {
	if uint32(frameID) >= r.replacerSize {
		panic(fmt.Sprintf("LRUKReplacer: frame id %d out of range", frameID))
	}
}
