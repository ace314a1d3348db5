package queue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[string]()

	for _, id := range []string{"a", "b", "c"} {
		_, ok := q.Enqueue(id)
		require.True(t, ok)
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.Dequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestQueue_EnqueueReportsWasEmpty(t *testing.T) {
	q := New[int]()

	wasEmpty, _ := q.Enqueue(1)
	assert.True(t, wasEmpty, "first insert starts an episode")

	wasEmpty, _ = q.Enqueue(2)
	assert.False(t, wasEmpty)

	q.Advance()
	q.Advance()

	wasEmpty, _ = q.Enqueue(3)
	assert.True(t, wasEmpty, "insert after draining starts a new episode")
}

func TestQueue_NoDeduplication(t *testing.T) {
	q := New[string]()
	q.Enqueue("same")
	q.Enqueue("same")
	assert.Equal(t, []string{"same", "same"}, q.Items())
}

func TestQueue_Advance(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	q.Enqueue("b")

	assert.Equal(t, 1, q.Advance())
	head, ok := q.PeekHead()
	require.True(t, ok)
	assert.Equal(t, "b", head)

	assert.Equal(t, 0, q.Advance())
	assert.Equal(t, 0, q.Advance(), "advancing an empty queue is a no-op")
	assert.Equal(t, 0, q.Len())

	_, ok = q.PeekHead()
	assert.False(t, ok)
}

func TestQueue_ItemsIsCopy(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")

	items := q.Items()
	items[0] = "mutated"

	head, _ := q.PeekHead()
	assert.Equal(t, "a", head)
}

func TestQueue_WaitSignals(t *testing.T) {
	q := New[int]()

	done := make(chan int)
	go func() {
		<-q.Wait()
		v, _ := q.Dequeue()
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("waiter was not signalled")
	}
}

func TestQueue_Close(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Close()
	q.Close()

	assert.True(t, q.Closed())

	_, ok := q.Enqueue(2)
	assert.False(t, ok, "enqueue after close should fail")

	v, ok := q.Dequeue()
	require.True(t, ok, "queued items survive close")
	assert.Equal(t, 1, v)

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("close did not wake waiters")
	}
}

func TestQueue_ConcurrentEnqueue_SingleEpisodeStart(t *testing.T) {
	q := New[string]()

	const producers = 10
	const perProducer = 100

	var starts atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if wasEmpty, _ := q.Enqueue(fmt.Sprintf("%d-%d", p, i)); wasEmpty {
					starts.Add(1)
				}
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load())
	assert.Equal(t, producers*perProducer, q.Len())
}
