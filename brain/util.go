package brain

import (
	"sync"
)

// makes a copy of the list on update so that callers can iterate the
// returned slice without holding the lock
type callbackList[T any] struct {
	mutex     sync.Mutex
	nextIndex int
	callbacks map[int]T
}

func newCallbackList[T any]() *callbackList[T] {
	return &callbackList[T]{
		callbacks: map[int]T{},
	}
}

func (self *callbackList[T]) get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	out := make([]T, 0, len(self.callbacks))
	for _, callback := range self.callbacks {
		out = append(out, callback)
	}
	return out
}

// returns a function that removes the callback
func (self *callbackList[T]) add(callback T) func() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := self.nextIndex
	self.nextIndex += 1
	self.callbacks[i] = callback

	return func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		delete(self.callbacks, i)
	}
}
