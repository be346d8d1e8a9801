package buffer

import (
	"testing"

	testingpkg "github.com/mfukuda/UnagiDB/testing/testing_assert"
)

func TestLRUKScenario(t *testing.T) {
	replacer := NewLRUKReplacer(7, 2)

	// Scenario: frames 1 and 2 gain a second access; frames 3, 4, 5 stay in
	// the history list with a single access each.
	replacer.RecordAccess(1, AccessTypeUnknown)
	replacer.RecordAccess(2, AccessTypeUnknown)
	replacer.RecordAccess(3, AccessTypeUnknown)
	replacer.RecordAccess(4, AccessTypeUnknown)
	replacer.RecordAccess(5, AccessTypeUnknown)
	replacer.RecordAccess(1, AccessTypeUnknown)
	replacer.RecordAccess(2, AccessTypeUnknown)

	for i := FrameID(1); i <= 5; i++ {
		replacer.SetEvictable(i, true)
	}
	testingpkg.Equals(t, uint32(5), replacer.Size())

	// Scenario: under-k frames leave first, in FIFO order of their first
	// access; then the k-accessed frames leave in LRU order.
	expected := []FrameID{3, 4, 5, 1, 2}
	for _, exp := range expected {
		frameID, ok := replacer.Evict()
		testingpkg.SimpleAssert(t, ok)
		testingpkg.Equals(t, exp, frameID)
	}

	_, ok := replacer.Evict()
	testingpkg.SimpleAssert(t, !ok)
	testingpkg.Equals(t, uint32(0), replacer.Size())
}

func TestLRUKEvictability(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	replacer.RecordAccess(0, AccessTypeUnknown)
	replacer.RecordAccess(1, AccessTypeUnknown)

	// nothing is evictable until the pool says so
	_, ok := replacer.Evict()
	testingpkg.SimpleAssert(t, !ok)
	testingpkg.Equals(t, uint32(0), replacer.Size())

	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)
	testingpkg.Equals(t, uint32(2), replacer.Size())

	// pinning frame 0 again shields it from eviction
	replacer.SetEvictable(0, false)
	frameID, ok := replacer.Evict()
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, FrameID(1), frameID)

	_, ok = replacer.Evict()
	testingpkg.SimpleAssert(t, !ok)

	// an access does not change evictability
	replacer.RecordAccess(0, AccessTypeUnknown)
	_, ok = replacer.Evict()
	testingpkg.SimpleAssert(t, !ok)
	testingpkg.Equals(t, uint32(0), replacer.Size())
}

func TestLRUKRemove(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	replacer.RecordAccess(0, AccessTypeUnknown)
	replacer.RecordAccess(1, AccessTypeUnknown)
	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)

	replacer.Remove(0)
	testingpkg.Equals(t, uint32(1), replacer.Size())

	// removing an unknown frame is a no-op
	replacer.Remove(3)
	testingpkg.Equals(t, uint32(1), replacer.Size())

	frameID, ok := replacer.Evict()
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, FrameID(1), frameID)
}

func TestLRUKRemoveNonEvictablePanics(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)
	replacer.RecordAccess(0, AccessTypeUnknown)

	defer func() {
		testingpkg.SimpleAssert(t, recover() != nil)
	}()
	replacer.Remove(0)
}

func TestLRUKFrameIDOutOfRangePanics(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	defer func() {
		testingpkg.SimpleAssert(t, recover() != nil)
	}()
	replacer.RecordAccess(4, AccessTypeUnknown)
}
