package queue

import (
	"context"
)

// Task is one queued unit of background work.
type Task interface {
	Execute(ctx context.Context)
}

// Func adapts a plain function to Task.
type Func func(ctx context.Context)

func (f Func) Execute(ctx context.Context) {
	f(ctx)
}

type TaskQueue chan Task

func NewTaskQueue(size int) TaskQueue {
	return make(TaskQueue, size)
}
