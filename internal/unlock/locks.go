package unlock

import "sync"

// userLocks сериализует операции над одним пользователем.
// Запись удаляется, когда её больше никто не держит.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (l *userLocks) lock(userUID string) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userUID]
	if !ok {
		ul = &userLock{}
		l.locks[userUID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userUID)
		}
		l.mu.Unlock()
	}
}
