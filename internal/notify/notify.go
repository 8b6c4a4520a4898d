// Package notify fans progress events out to registered listeners.
package notify

import (
	"sync"

	"github.com/conorfennell/recall/internal/domain"
)

// Listener receives events synchronously on the publishing goroutine.
type Listener func(domain.Event)

// Bus is a synchronous publish/subscribe hub. The zero value is ready to use.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners []entry
}

type entry struct {
	id int
	fn Listener
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, entry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, e := range b.listeners {
				if e.id == id {
					b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every listener in subscription order.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	for i, e := range b.listeners {
		listeners[i] = e.fn
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
