package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryQueueOrder(t *testing.T) {
	q := NewInMemoryQueue[int](4)
	for i := 1; i <= 3; i++ {
		assert.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 3, q.Size())
	assert.Equal(t, 1, q.Dequeue())
	assert.Equal(t, []int{2, 3}, q.ReadAllMessages())
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueueFull(t *testing.T) {
	q := NewInMemoryQueue[string](1)
	assert.NoError(t, q.Enqueue("a"))
	assert.ErrorIs(t, q.Enqueue("b"), ErrQueueFull)

	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
	assert.NoError(t, q.Enqueue("c"))
	assert.Equal(t, "c", <-q.Chan())
}

func TestInMemoryQueueDefaultSize(t *testing.T) {
	q := NewInMemoryQueue[int](0)
	assert.Equal(t, QueueBufferSize, cap(q.ch))
}
