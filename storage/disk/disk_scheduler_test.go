package disk

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/types"
)

func TestScheduleWriteThenRead(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)
	defer scheduler.ShutDown()

	data := make([]byte, common.PageSize)
	copy(data, "A test string.")

	writeReq := scheduler.NewWriteRequest(0, data)
	scheduler.Schedule(writeReq)
	require.True(t, <-writeReq.Callback)

	buffer := make([]byte, common.PageSize)
	readReq := scheduler.NewReadRequest(0, buffer)
	scheduler.Schedule(readReq)
	require.True(t, <-readReq.Callback)
	require.Equal(t, data, buffer)
}

func TestScheduleFIFOWriteBeforeRead(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)
	defer scheduler.ShutDown()

	// a read scheduled after a write of the same page must observe the write,
	// even when neither future has been awaited yet
	data := make([]byte, common.PageSize)
	copy(data, "ordering")
	buffer := make([]byte, common.PageSize)

	writeReq := scheduler.NewWriteRequest(7, data)
	readReq := scheduler.NewReadRequest(7, buffer)
	scheduler.Schedule(writeReq)
	scheduler.Schedule(readReq)

	require.True(t, <-writeReq.Callback)
	require.True(t, <-readReq.Callback)
	require.Equal(t, data, buffer)
}

func TestConcurrentScheduling(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)

	numThreads := 10
	pagesPerThread := 10

	var wg sync.WaitGroup
	for th := 0; th < numThreads; th++ {
		wg.Add(1)
		go func(th int) {
			defer wg.Done()
			for i := 0; i < pagesPerThread; i++ {
				pageID := types.PageID(th*pagesPerThread + i)
				data := make([]byte, common.PageSize)
				copy(data, fmt.Sprintf("thread-%d-page-%d", th, i))

				writeReq := scheduler.NewWriteRequest(pageID, data)
				scheduler.Schedule(writeReq)
				require.True(t, <-writeReq.Callback)

				buffer := make([]byte, common.PageSize)
				readReq := scheduler.NewReadRequest(pageID, buffer)
				scheduler.Schedule(readReq)
				require.True(t, <-readReq.Callback)
				require.Equal(t, data, buffer)
			}
		}(th)
	}
	wg.Wait()

	scheduler.ShutDown()
	require.Equal(t, uint64(numThreads*pagesPerThread), dm.GetNumWrites())
}

func TestShutDownDrainsQueue(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)

	requests := make([]*DiskRequest, 0)
	for i := 0; i < 50; i++ {
		data := make([]byte, common.PageSize)
		req := scheduler.NewWriteRequest(types.PageID(i), data)
		scheduler.Schedule(req)
		requests = append(requests, req)
	}
	scheduler.ShutDown()

	for _, req := range requests {
		require.True(t, <-req.Callback)
	}
	require.Equal(t, uint64(50), dm.GetNumWrites())
}
