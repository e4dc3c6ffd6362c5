package stores

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Store(t *testing.T) {
	t.Run("Should call subscribers immediately and on every change", func(t *testing.T) {
		s := NewStore(1)
		received := make([]int, 0)
		unsubscribe := s.Subscribe(func(v int) {
			received = append(received, v)
		})

		s.Set(2)
		s.Update(func(current int) int { return current * 10 })
		assert.Equal(t, []int{1, 2, 20}, received)
		assert.Equal(t, 20, s.Get())

		unsubscribe()
		unsubscribe()
		s.Set(3)
		assert.Equal(t, []int{1, 2, 20}, received)
		assert.Equal(t, 0, s.SubscriberCount())
	})

	t.Run("Should notify subscribers in subscription order", func(t *testing.T) {
		s := NewStore("")
		order := make([]string, 0)
		s.Subscribe(func(string) { order = append(order, "a") })
		unsubscribeB := s.Subscribe(func(string) { order = append(order, "b") })
		s.Subscribe(func(string) { order = append(order, "c") })
		unsubscribeB()

		order = order[:0]
		s.Set("x")
		assert.Equal(t, []string{"a", "c"}, order)
	})

	t.Run("Should allow subscribers to read the store", func(t *testing.T) {
		s := NewStore(0)
		var seen int
		s.Subscribe(func(int) { seen = s.Get() })
		s.Set(5)
		assert.Equal(t, 5, seen)
	})

	t.Run("Should apply concurrent updates without losing writes", func(t *testing.T) {
		s := NewStore(0)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Update(func(current int) int { return current + 1 })
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, s.Get())
	})
}

func Test_KeyedStore(t *testing.T) {
	t.Run("Should set keys without mutating earlier snapshots", func(t *testing.T) {
		k := NewKeyedStore[string]()
		first := k.Get()

		k.SetKey("nns", "a", false)
		k.SetKey("sns", "b", true)

		assert.Len(t, first, 0)
		v, ok := k.GetKey("sns")
		assert.True(t, ok)
		assert.Equal(t, "b", v.Data)
		assert.True(t, v.Certified)

		_, ok = k.GetKey("missing")
		assert.False(t, ok)

		k.Reset()
		assert.Len(t, k.Get(), 0)
	})
}
