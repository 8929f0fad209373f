package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxReaders bounds concurrent point reads against a cache.
	// If 0, reads are not bounded.
	MaxReaders int64

	// MaxWorkers is the maximum number of concurrent background jobs
	// (split builds, loader fetches, transfers). If 0, defaults to 1.
	MaxWorkers int64

	// IOLimitBytesPerSec is the maximum throughput for transfers.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages shared resources (reader width, workers, IO).
type Controller struct {
	cfg Config

	readSem *semaphore.Weighted // nil if unbounded
	reading atomic.Int64

	workSem *semaphore.Weighted

	ioLimiter *rate.Limiter
	ioBytes   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MaxReaders > 0 {
		c.readSem = semaphore.NewWeighted(cfg.MaxReaders)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the normalized limits.
func (c *Controller) Config() Config {
	return c.cfg
}

// AcquireReader reserves a reader slot, blocking until one is free or ctx
// is canceled. A nil controller never blocks.
func (c *Controller) AcquireReader(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	if c.readSem != nil {
		if err := c.readSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	c.reading.Add(1)
	return nil
}

// ReleaseReader releases a reader slot.
func (c *Controller) ReleaseReader() {
	if c == nil {
		return
	}
	if c.readSem != nil {
		c.readSem.Release(1)
	}
	c.reading.Add(-1)
}

// ActiveReaders returns the number of reads in flight.
func (c *Controller) ActiveReaders() int64 {
	if c == nil {
		return 0
	}
	return c.reading.Load()
}

// AcquireWorker reserves a background worker slot.
// Blocks if all slots are busy. A nil controller never blocks.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workSem.Acquire(ctx, 1)
}

// TryAcquireWorker attempts to reserve a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workSem.TryAcquire(1)
}

// ReleaseWorker releases a background worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil {
		return nil
	}
	c.ioBytes.Add(int64(bytes))
	if c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// IOBytes returns the number of bytes accounted through AcquireIO.
func (c *Controller) IOBytes() int64 {
	if c == nil {
		return 0
	}
	return c.ioBytes.Load()
}
