package common

import "time"

var LogTimeout time.Duration

const EnableDebug bool = false

// use on memory virtual storage or not
const EnableOnMemStorage = true

// when this is true, virtual storage use is suppressed
// for test case which can't work with virtual storage
var TempSuppressOnMemStorage = false

const (
	// invalid page id
	InvalidPageID = -1
	// size of a data page in byte
	PageSize = 4096
	// number of frames a buffer pool manages in tests
	BufferPoolMaxFrameNumForTest = 32
	// number of accesses the LRU-K replacer keys its recency on
	ReplacerK = 2
	// capacity of the disk scheduler request queue
	DiskSchedulerQueueSize = 1024
	// default depth of the hash index header page
	HashTableHeaderMaxDepth = 9
	// default depth of a hash index directory page
	HashTableDirectoryMaxDepth = 9
	// default number of entries a hash index bucket page accepts
	HashTableBucketMaxSize = 255

	ActiveLogKindSetting = INFO
	KernelThreadNum      = 24
)
