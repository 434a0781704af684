package wasm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errPoolShutdown = errors.New("worker pool is shut down")

// Pool shares module instances between concurrent callers.
type Pool interface {
	// Compile runs request on an available worker, blocking until one is
	// free or ctx is done.
	Compile(ctx context.Context, request []byte) ([]string, error)

	// ActiveWorkers returns the number of workers currently in use.
	ActiveWorkers() uint

	// Shutdown closes idle workers and rejects further invocations.
	Shutdown(ctx context.Context) error
}

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	MinWorkers int
	MaxWorkers int
	Module     Module
}

// NewPool creates a pool and pre-warms MinWorkers instances.
func NewPool(ctx context.Context, config PoolConfig) (Pool, error) {
	if config.MinWorkers < 0 {
		return nil, errors.New("min workers cannot be negative")
	}
	if config.MaxWorkers < 1 {
		return nil, errors.New("max workers must be at least 1")
	}
	if config.MinWorkers > config.MaxWorkers {
		return nil, errors.New("min workers cannot be greater than max workers")
	}
	if config.Module == nil {
		return nil, errors.New("module cannot be nil")
	}

	p := &pool{
		maxWorkers:  config.MaxWorkers,
		module:      config.Module,
		idleWorkers: make(chan Worker, config.MaxWorkers),
		shutdown:    make(chan struct{}),
	}

	for i := 0; i < config.MinWorkers; i++ {
		w, err := config.Module.Instantiate(ctx)
		if err != nil {
			p.closeIdle(ctx)
			return nil, err
		}
		p.idleWorkers <- w
		p.workerCount.Add(1)
	}

	return p, nil
}

type pool struct {
	maxWorkers    int
	module        Module
	idleWorkers   chan Worker
	workerCount   atomic.Int32
	activeWorkers atomic.Int32
	shutdown      chan struct{}
	shutdownOnce  sync.Once
}

func (p *pool) Compile(ctx context.Context, request []byte) ([]string, error) {
	select {
	case <-p.shutdown:
		return nil, errPoolShutdown
	default:
	}

	w, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(w)

	return w.Compile(ctx, request)
}

func (p *pool) ActiveWorkers() uint {
	return uint(p.activeWorkers.Load())
}

func (p *pool) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
		err = p.closeIdle(ctx)
	})
	return err
}

func (p *pool) acquire(ctx context.Context) (Worker, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.shutdown:
		return nil, errPoolShutdown
	case w := <-p.idleWorkers:
		p.activeWorkers.Add(1)
		return w, nil
	default:
	}

	// No idle worker: grow if below the limit
	if n := p.workerCount.Add(1); n <= int32(p.maxWorkers) {
		w, err := p.module.Instantiate(ctx)
		if err != nil {
			p.workerCount.Add(-1)
			return nil, err
		}
		p.activeWorkers.Add(1)
		return w, nil
	}
	p.workerCount.Add(-1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.shutdown:
		return nil, errPoolShutdown
	case w := <-p.idleWorkers:
		p.activeWorkers.Add(1)
		return w, nil
	}
}

func (p *pool) release(w Worker) {
	p.activeWorkers.Add(-1)

	select {
	case <-p.shutdown:
		w.Close(context.Background())
		p.workerCount.Add(-1)
		return
	default:
	}

	select {
	case p.idleWorkers <- w:
	default:
		w.Close(context.Background())
		p.workerCount.Add(-1)
	}
}

func (p *pool) closeIdle(ctx context.Context) error {
	var lastErr error
	for {
		select {
		case w := <-p.idleWorkers:
			if err := w.Close(ctx); err != nil {
				lastErr = err
			}
		default:
			return lastErr
		}
	}
}
