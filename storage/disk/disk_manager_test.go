package disk

import (
	"testing"

	"github.com/mfukuda/UnagiDB/common"
	testingpkg "github.com/mfukuda/UnagiDB/testing/testing_assert"
)

func TestWriteThenReadBack(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	first := make([]byte, common.PageSize)
	second := make([]byte, common.PageSize)
	for i := range first {
		first[i] = byte(i)
		second[i] = byte(255 - i%256)
	}

	// pages land at independent offsets and do not bleed into each other
	dm.WritePage(0, first)
	dm.WritePage(3, second)

	buffer := make([]byte, common.PageSize)
	testingpkg.Ok(t, dm.ReadPage(0, buffer))
	testingpkg.Equals(t, first, buffer)
	testingpkg.Ok(t, dm.ReadPage(3, buffer))
	testingpkg.Equals(t, second, buffer)

	// rewriting a page replaces its previous content
	dm.WritePage(0, second)
	testingpkg.Ok(t, dm.ReadPage(0, buffer))
	testingpkg.Equals(t, second, buffer)

	testingpkg.Equals(t, uint64(3), dm.GetNumWrites())
}

func TestAllocatePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	testingpkg.SimpleAssert(t, dm.AllocatePage() == 0)
	testingpkg.SimpleAssert(t, dm.AllocatePage() == 1)
	testingpkg.SimpleAssert(t, dm.AllocatePage() == 2)
}

func TestReadPastEndOfFile(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	buffer := make([]byte, common.PageSize)
	err := dm.ReadPage(100, buffer)
	testingpkg.Nok(t, err)
}
