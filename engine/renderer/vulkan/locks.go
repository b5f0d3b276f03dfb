package vulkan

import (
	"sync"

	vk "github.com/goki/vulkan"
)

// queueLocks serializes host access to each queue. The graphics and the
// present family often resolve to the same queue.
type queueLocks struct {
	mu    sync.Mutex // Protects access to the locks map
	locks map[vk.Queue]*sync.Mutex
}

func newQueueLocks() *queueLocks {
	return &queueLocks{
		locks: make(map[vk.Queue]*sync.Mutex),
	}
}

// Get or create the mutex of a queue
func (q *queueLocks) lock(queue vk.Queue) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.locks[queue]; !exists {
		q.locks[queue] = &sync.Mutex{}
	}
	return q.locks[queue]
}

func (q *queueLocks) safeCall(queue vk.Queue, fn func() vk.Result) vk.Result {
	l := q.lock(queue)
	l.Lock()
	defer l.Unlock()

	return fn()
}
