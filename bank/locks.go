package bank

import "sync"

// CustomerLocks serializes mutations per customer. Decisions for different
// customers proceed in parallel; two concurrent turns for the same customer
// queue behind one mutex.
type CustomerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCustomerLocks() *CustomerLocks {
	return &CustomerLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for one customer and returns its release func.
//
//	release := locks.Lock(id)
//	defer release()
func (l *CustomerLocks) Lock(customerID string) func() {
	l.mu.Lock()
	m, ok := l.locks[customerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[customerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
