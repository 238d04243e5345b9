// Package worker выполняет блокирующую работу в фоне и отдаёт результат вызывающему.
package worker

import (
	"context"
	"sync"
)

// Future - результат фоновой задачи, доступный через Await.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Go запускает fn в отдельной горутине. Отмена ctx передаётся в fn.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := fn(ctx)
		f.complete(v, err)
	}()
	return f
}

// Resolved возвращает уже завершённый Future.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.complete(v, err)
	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Await ждёт результат или отмену ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done закрывается по завершении задачи.
func (f *Future[T]) Done() <-chan struct{} { return f.done }
