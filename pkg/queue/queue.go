package queue

import "errors"

// ErrQueueFull is returned when an item cannot be added without blocking.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a basic queue.
type Queue[T any] interface {
	Enqueue(item T) error
	Dequeue() T
	Chan() <-chan T
	Size() int
	ReadAllMessages() []T
	ClearQueue()
}
