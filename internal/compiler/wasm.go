package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okra-platform/payloadgen/internal/wasm"
	"github.com/rs/zerolog"
)

// WASMCompiler runs a compiler built as a WASI module. Requests and
// responses are JSON encoded.
type WASMCompiler struct {
	pool   wasm.Pool
	module wasm.Module
	logger zerolog.Logger
}

// NewWASMCompiler creates a compiler backed by pool
func NewWASMCompiler(pool wasm.Pool, logger zerolog.Logger) *WASMCompiler {
	return &WASMCompiler{
		pool:   pool,
		logger: logger.With().Str("component", "compiler").Logger(),
	}
}

// LoadWASMCompiler compiles the module at path and pools up to maxWorkers instances
func LoadWASMCompiler(ctx context.Context, path string, maxWorkers int, logger zerolog.Logger) (*WASMCompiler, error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	module, err := wasm.LoadModule(ctx, path)
	if err != nil {
		return nil, err
	}

	pool, err := wasm.NewPool(ctx, wasm.PoolConfig{
		MinWorkers: 1,
		MaxWorkers: maxWorkers,
		Module:     module,
	})
	if err != nil {
		module.Close(ctx)
		return nil, fmt.Errorf("failed to start compiler workers: %w", err)
	}

	c := NewWASMCompiler(pool, logger)
	c.module = module
	return c, nil
}

func (c *WASMCompiler) Compile(ctx context.Context, req Request) (*Result, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return nil, failure(req.SchemaName, fmt.Errorf("failed to encode request: %w", err))
	}

	c.logger.Debug().
		Str("language", string(req.Language)).
		Str("schema", req.SchemaName).
		Msg("invoking wasm compiler")

	lines, err := c.pool.Compile(ctx, input)
	if err != nil {
		return nil, failure(req.SchemaName, err)
	}

	return &Result{Lines: lines}, nil
}

// Close shuts down the worker pool and releases the module
func (c *WASMCompiler) Close(ctx context.Context) error {
	err := c.pool.Shutdown(ctx)
	if c.module != nil {
		if cerr := c.module.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}
