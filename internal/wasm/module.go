// Package wasm hosts schema compilers built as WASI reactor modules. Each
// worker owns one instance; a pool shares workers across concurrent
// emissions.
package wasm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Module is a compiled compiler module
type Module interface {
	Instantiate(ctx context.Context) (Worker, error)
	Close(ctx context.Context) error
}

// LoadModule reads and compiles the module at path
func LoadModule(ctx context.Context, path string) (Module, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiler module %s: %w", path, err)
	}
	return NewModule(ctx, wasmBytes)
}

// NewModule compiles wasmBytes with WASI available. Modules lacking the
// compiler exports are rejected here rather than on first use.
func NewModule(ctx context.Context, wasmBytes []byte) (Module, error) {
	if len(wasmBytes) == 0 {
		return nil, fmt.Errorf("wasm bytes cannot be empty")
	}

	runtime := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	if missing := missingExports(compiled); len(missing) > 0 {
		runtime.Close(ctx)
		return nil, fmt.Errorf("not a compiler module, missing exports: %s", strings.Join(missing, ", "))
	}

	return &compilerModule{runtime: runtime, compiled: compiled}, nil
}

func missingExports(compiled wazero.CompiledModule) []string {
	exported := compiled.ExportedFunctions()
	var missing []string
	for _, name := range requiredExports {
		if _, ok := exported[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

type compilerModule struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// Instantiate creates a worker with its own memory and stderr capture
func (m *compilerModule) Instantiate(ctx context.Context) (Worker, error) {
	stderr := &bytes.Buffer{}

	// Anonymous so several instances can coexist; _start is not run
	config := wazero.NewModuleConfig().
		WithStderr(stderr).
		WithName("").
		WithStartFunctions()

	instance, err := m.runtime.InstantiateModule(ctx, m.compiled, config)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if initialize := instance.ExportedFunction(exportInitialize); initialize != nil {
		if _, err := initialize.Call(ctx); err != nil {
			instance.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", exportInitialize, err)
		}
	}

	if instance.Memory() == nil {
		instance.Close(ctx)
		return nil, fmt.Errorf("compiler module has no memory")
	}

	return newWorker(instance, stderr), nil
}

func (m *compilerModule) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}
