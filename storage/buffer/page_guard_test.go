package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/storage/disk"
)

func TestBasicPageGuard(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(5, common.ReplacerK, dm)
	defer bpm.ShutDown()

	guard := bpm.NewPageGuarded()
	require.NotNil(t, guard)
	pageID := guard.PageId()

	pg := bpm.FetchPage(pageID, AccessTypeUnknown)
	require.EqualValues(t, 2, pg.PinCount())
	require.True(t, bpm.UnpinPage(pageID, false, AccessTypeUnknown))

	// dropping the guard gives the last pin back
	guard.Drop()
	require.EqualValues(t, 0, pg.PinCount())

	// a dropped guard is inert
	guard.Drop()
	require.EqualValues(t, 0, pg.PinCount())
	require.Nil(t, guard.GetData())
}

func TestReadWriteGuards(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(5, common.ReplacerK, dm)
	defer bpm.ShutDown()

	basic := bpm.NewPageGuarded()
	pageID := basic.PageId()
	basic.Drop()

	writeGuard := bpm.FetchPageWrite(pageID)
	require.NotNil(t, writeGuard)
	copy(writeGuard.GetDataMut()[:], "guarded write")
	writeGuard.Drop()

	readGuard := bpm.FetchPageRead(pageID)
	require.NotNil(t, readGuard)
	require.Equal(t, []byte("guarded write"), readGuard.GetData()[:len("guarded write")])
	readGuard.Drop()

	// the write went through a GetDataMut view, so the page must be dirty
	pg := bpm.FetchPage(pageID, AccessTypeUnknown)
	require.True(t, pg.IsDirty())
	require.True(t, bpm.UnpinPage(pageID, false, AccessTypeUnknown))
}

func TestGuardUpgrade(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(5, common.ReplacerK, dm)
	defer bpm.ShutDown()

	guard := bpm.NewPageGuarded()
	pageID := guard.PageId()

	writeGuard := guard.UpgradeWrite()
	require.Equal(t, pageID, writeGuard.PageId())
	copy(writeGuard.GetDataMut()[:], "upgraded")
	writeGuard.Drop()

	pg := bpm.FetchPage(pageID, AccessTypeUnknown)
	require.EqualValues(t, 1, pg.PinCount())
	require.True(t, bpm.UnpinPage(pageID, false, AccessTypeUnknown))
}

func TestConcurrentReadGuards(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(5, common.ReplacerK, dm)
	defer bpm.ShutDown()

	guard := bpm.NewPageGuarded()
	pageID := guard.PageId()
	guard.Drop()

	// several read guards may share a page
	r1 := bpm.FetchPageRead(pageID)
	r2 := bpm.FetchPageRead(pageID)
	require.NotNil(t, r1)
	require.NotNil(t, r2)

	pg := bpm.FetchPage(pageID, AccessTypeUnknown)
	require.EqualValues(t, 3, pg.PinCount())
	require.True(t, bpm.UnpinPage(pageID, false, AccessTypeUnknown))

	r1.Drop()
	r2.Drop()
	require.EqualValues(t, 0, pg.PinCount())
}
