// Package stores provides observable in-memory values. Subscribers receive the
// current value on subscription and every new value afterwards.
package stores

import (
	"sync"
)

type Subscriber[T any] func(value T)

type Unsubscribe func()

type Store[T any] struct {
	mu          sync.RWMutex
	value       T
	nextId      uint64
	subscribers map[uint64]Subscriber[T]
	// order keeps notification order stable
	order []uint64
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		value:       initial,
		subscribers: make(map[uint64]Subscriber[T]),
	}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
// Subscribers are called outside the lock and may read the store.
func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

// Update applies fn to the current value atomically with respect to other writers.
func (s *Store[T]) Update(fn func(current T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

func (s *Store[T]) Subscribe(sub Subscriber[T]) Unsubscribe {
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.subscribers[id] = sub
	s.order = append(s.order, id)
	value := s.value
	s.mu.Unlock()

	sub(value)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store[T]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *Store[T]) snapshotSubscribers() []Subscriber[T] {
	subs := make([]Subscriber[T], 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subscribers[id])
	}
	return subs
}

// CertifiedData pairs a value with whether it came from a certified response.
type CertifiedData[T any] struct {
	Data      T    `json:"data"`
	Certified bool `json:"certified"`
}

// KeyedStore holds one certified value per key, e.g. per project id.
// A key that is absent has not been loaded yet.
type KeyedStore[T any] struct {
	*Store[map[string]*CertifiedData[T]]
}

func NewKeyedStore[T any]() *KeyedStore[T] {
	return &KeyedStore[T]{Store: NewStore(map[string]*CertifiedData[T]{})}
}

// SetKey stores the value of a key. The map is copied so subscribers never
// observe a later mutation.
func (k *KeyedStore[T]) SetKey(key string, data T, certified bool) {
	k.Update(func(current map[string]*CertifiedData[T]) map[string]*CertifiedData[T] {
		next := make(map[string]*CertifiedData[T], len(current)+1)
		for ck, cv := range current {
			next[ck] = cv
		}
		next[key] = &CertifiedData[T]{Data: data, Certified: certified}
		return next
	})
}

func (k *KeyedStore[T]) GetKey(key string) (*CertifiedData[T], bool) {
	v, ok := k.Get()[key]
	return v, ok
}

func (k *KeyedStore[T]) Reset() {
	k.Set(map[string]*CertifiedData[T]{})
}
