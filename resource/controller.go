// Package resource bounds the resources storage backends may use: buffered
// snapshot bytes, concurrent per-table IO and IO throughput.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes is the hard limit for snapshot bytes buffered at once.
	MemoryLimitBytes int64

	// MaxConcurrentIO is the maximum number of tables read or written in parallel.
	// If 0, defaults to 4.
	MaxConcurrentIO int64

	// IOLimitBytesPerSec is the maximum blob store throughput.
	IOLimitBytesPerSec int64
}

// Controller hands out memory, IO slots and IO bandwidth.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	ioSem *semaphore.Weighted

	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentIO <= 0 {
		cfg.MaxConcurrentIO = 4
	}

	c := &Controller{
		cfg:   cfg,
		ioSem: semaphore.NewWeighted(cfg.MaxConcurrentIO),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory reserves bytes. If a hard limit is configured and usage would
// exceed it, this blocks until memory is released or ctx is canceled.
// A request larger than the limit is clamped to the limit.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, c.clampMemory(bytes)); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(c.clampMemory(bytes)) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases bytes reserved with AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(c.clampMemory(bytes))
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

func (c *Controller) clampMemory(bytes int64) int64 {
	return min(bytes, c.cfg.MemoryLimitBytes)
}

// AcquireIO reserves one IO slot, blocking while all slots are busy.
func (c *Controller) AcquireIO(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.ioSem.Acquire(ctx, 1)
}

// ReleaseIO releases a slot reserved with AcquireIO.
func (c *Controller) ReleaseIO() {
	if c == nil {
		return
	}
	c.ioSem.Release(1)
}

// WaitIO waits until the throughput limit allows n bytes.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}
	// WaitN rejects requests above the burst size, so large buffers are
	// admitted in burst-sized chunks.
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
