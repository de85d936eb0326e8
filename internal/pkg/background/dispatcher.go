package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher runs fire-and-forget tasks on their own goroutines. Tasks are
// detached from the request that spawned them: they get a fresh context bounded
// only by the dispatcher's timeout. Failures and panics are logged, never returned.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{timeout: timeout}
}

// Go starts task in the background under the given name.
func (d *Dispatcher) Go(name string, task func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.run(task); err != nil {
			slog.Error("background task failed", "task", name, "err", err)
			return
		}
		slog.Debug("background task completed", "task", name)
	}()
}

func (d *Dispatcher) run(task func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Wait blocks until all dispatched tasks, including tasks dispatched by
// running tasks, have finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
