package document

import "sync"

type lockKey struct {
	userID     string
	documentID string
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// documentLocks 按文档惰性创建的互斥锁，无人持有或等待时回收
type documentLocks struct {
	mu    sync.Mutex
	locks map[lockKey]*refLock
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[lockKey]*refLock)}
}

// lock 获取文档锁，返回解锁函数
func (l *documentLocks) lock(userID, documentID string) func() {
	key := lockKey{userID: userID, documentID: documentID}

	l.mu.Lock()
	rl, ok := l.locks[key]
	if !ok {
		rl = &refLock{}
		l.locks[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// size 当前持有的锁数量
func (l *documentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
