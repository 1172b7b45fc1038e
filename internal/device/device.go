// Package device serializes access to the compute device shared by the
// encoder and the ranker.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

// slowWait is how long a caller may queue before the wait is logged.
const slowWait = time.Second

// Device bounds how many forward passes run at once. Callers beyond the
// bound queue in FIFO order until a slot frees or their context ends.
type Device struct {
	name   string
	sem    *semaphore.Weighted
	slots  int64
	logger *slog.Logger
}

// New creates a Device allowing concurrency simultaneous passes; values
// below 1 mean 1.
func New(name string, concurrency int, logger *slog.Logger) *Device {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		name:   name,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		slots:  int64(concurrency),
		logger: logger,
	}
}

// Slots returns the configured concurrency.
func (d *Device) Slots() int { return int(d.slots) }

// Run executes fn while holding one device slot.
func (d *Device) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire %s device: %w", d.name, err)
	}
	defer d.sem.Release(1)

	if waited := time.Since(start); waited > slowWait {
		d.logger.WarnContext(ctx, "device queue wait", "device", d.name, "waited", waited)
	}
	return fn(ctx)
}

// Do runs fn on d and returns its result.
func Do[T any](ctx context.Context, d *Device, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := d.Run(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
