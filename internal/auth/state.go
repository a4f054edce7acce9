package auth

import (
	"context"
	"errors"
	"sync"

	"connectify/internal/domain"
)

// State is delivered to auth-state subscribers. A nil User means signed out.
type State struct {
	User      *domain.Identity
	IsLoading bool
}

// Listener reacts to an auth state change.
type Listener func(ctx context.Context, state State) error

// Notifier fans auth state changes out to subscribers.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnAuthStateChanged registers fn and returns a handle that removes it.
func (n *Notifier) OnAuthStateChanged(fn Listener) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, sub := range n.listeners {
				if sub.id == id {
					n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish calls every subscriber in subscription order and joins their errors.
func (n *Notifier) Publish(ctx context.Context, state State) error {
	n.mu.Lock()
	subs := make([]subscription, len(n.listeners))
	copy(subs, n.listeners)
	n.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.fn(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
