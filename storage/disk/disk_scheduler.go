package disk

import (
	"github.com/mfukuda/UnagiDB/common"
	"github.com/mfukuda/UnagiDB/types"
)

// DiskRequest represents one unit of work for the DiskScheduler.
// Callback must be a buffered channel. The worker resolves it exactly once:
// true when the transfer succeeded, false when the DiskManager reported an
// I/O fault.
type DiskRequest struct {
	// flag indicating whether the request is a write or a read
	IsWrite bool
	// buffer the data is read into or written from. must be PageSize bytes
	Data []byte
	// id of the page the request targets
	PageID types.PageID
	// channel the worker signals completion on
	Callback chan bool
}

/**
 * DiskScheduler decouples its callers from blocking disk operations. Requests
 * are queued in FIFO order and processed by a single background worker, so
 * the underlying DiskManager only ever sees one operation at a time and a
 * write scheduled before a read of the same page completes before that read.
 */
type DiskScheduler struct {
	diskManager  DiskManager
	requestQueue chan *DiskRequest
	workerDone   chan struct{}
}

// NewDiskScheduler starts the background worker goroutine
func NewDiskScheduler(diskManager DiskManager) *DiskScheduler {
	ret := &DiskScheduler{diskManager, make(chan *DiskRequest, common.DiskSchedulerQueueSize), make(chan struct{})}
	go ret.startWorkerThread()
	return ret
}

// Schedule enqueues a request and returns immediately.
// The caller awaits request.Callback. Scheduling after ShutDown is a
// programmer error: the request is never processed.
func (s *DiskScheduler) Schedule(request *DiskRequest) {
	if request == nil {
		panic("DiskScheduler::Schedule nil request")
	}
	s.requestQueue <- request
}

// NewWriteRequest builds a write request for pageID backed by data
func (s *DiskScheduler) NewWriteRequest(pageID types.PageID, data []byte) *DiskRequest {
	return &DiskRequest{true, data, pageID, make(chan bool, 1)}
}

// NewReadRequest builds a read request for pageID into data
func (s *DiskScheduler) NewReadRequest(pageID types.PageID, data []byte) *DiskRequest {
	return &DiskRequest{false, data, pageID, make(chan bool, 1)}
}

// a nil entry on the queue is the end-of-stream sentinel
func (s *DiskScheduler) startWorkerThread() {
	for {
		request := <-s.requestQueue
		if request == nil {
			break
		}

		var err error
		if request.IsWrite {
			err = s.diskManager.WritePage(request.PageID, request.Data)
		} else {
			err = s.diskManager.ReadPage(request.PageID, request.Data)
		}
		if err != nil {
			common.ShPrintf(common.ERROR, "DiskScheduler: I/O failed. pageId:%d isWrite:%v err:%v\n", request.PageID, request.IsWrite, err)
		}
		request.Callback <- err == nil
	}
	close(s.workerDone)
}

// ShutDown enqueues the end-of-stream sentinel and joins the worker.
// All requests scheduled before the call are processed first.
func (s *DiskScheduler) ShutDown() {
	s.requestQueue <- nil
	<-s.workerDone
}
