package vulkan

import "sync"

type LockGroup string

const (
	// Guards RenderPassCache and FramebufferCache, which have no locking of
	// their own.
	CacheManagement LockGroup = "cache_management"
	QueueManagement LockGroup = "queue_management"
)

// LockPool hands out one mutex per group, created on first use.
type LockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex // protects the locks map
}

func NewLockPool() *LockPool {
	return &LockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (lp *LockPool) lock(group LockGroup) *sync.Mutex {
	lp.mu.Lock()
	l, exists := lp.locks[group]
	if !exists {
		l = &sync.Mutex{}
		lp.locks[group] = l
	}
	lp.mu.Unlock()

	l.Lock()
	return l
}

// SafeCall runs fn while holding the group's mutex.
func (lp *LockPool) SafeCall(group LockGroup, fn func() error) error {
	l := lp.lock(group)
	defer l.Unlock()

	return fn()
}
