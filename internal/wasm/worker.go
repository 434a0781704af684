package wasm

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// Worker is one module instance. Workers are not safe for concurrent use.
type Worker interface {
	// Compile sends an encoded compile request and returns the generated lines.
	Compile(ctx context.Context, request []byte) ([]string, error)
	Close(ctx context.Context) error
}

type worker struct {
	instance      api.Module
	handleRequest api.Function
	allocate      api.Function
	deallocate    api.Function
	stderr        *bytes.Buffer
}

// newWorker binds the exports NewModule already verified
func newWorker(instance api.Module, stderr *bytes.Buffer) *worker {
	return &worker{
		instance:      instance,
		handleRequest: instance.ExportedFunction(exportHandleRequest),
		allocate:      instance.ExportedFunction(exportAllocate),
		deallocate:    instance.ExportedFunction(exportDeallocate),
		stderr:        stderr,
	}
}

func (w *worker) Compile(ctx context.Context, request []byte) ([]string, error) {
	w.stderr.Reset()

	output, err := w.call(ctx, CompileMethod, request)
	if err != nil {
		if msg := strings.TrimSpace(w.stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w (stderr: %s)", err, msg)
		}
		return nil, err
	}
	return decodeResponse(output)
}

// call runs handle_request and copies the output out of guest memory
func (w *worker) call(ctx context.Context, method string, input []byte) ([]byte, error) {
	methodPtr, err := w.put(ctx, []byte(method))
	if err != nil {
		return nil, fmt.Errorf("method: %w", err)
	}
	defer w.free(ctx, methodPtr)

	inputPtr, err := w.put(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer w.free(ctx, inputPtr)

	results, err := w.handleRequest.Call(ctx,
		uint64(methodPtr), uint64(len(method)),
		uint64(inputPtr), uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("%s trapped: %w", exportHandleRequest, err)
	}

	ptr, size := unpack(results[0])
	if ptr == 0 && size == 0 {
		return nil, fmt.Errorf("%s returned no output", exportHandleRequest)
	}
	defer w.free(ctx, ptr)

	view, ok := w.instance.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("output out of range: %d bytes at %d", size, ptr)
	}
	// The view is invalid once deallocated
	return bytes.Clone(view), nil
}

// put copies data into memory obtained from allocate
func (w *worker) put(ctx context.Context, data []byte) (uint32, error) {
	results, err := w.allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %d bytes: %w", len(data), err)
	}
	ptr := uint32(results[0])
	if !w.instance.Memory().Write(ptr, data) {
		w.free(ctx, ptr)
		return 0, fmt.Errorf("failed to write %d bytes at %d", len(data), ptr)
	}
	return ptr, nil
}

func (w *worker) free(ctx context.Context, ptr uint32) {
	_, _ = w.deallocate.Call(ctx, uint64(ptr))
}

func (w *worker) Close(ctx context.Context) error {
	return w.instance.Close(ctx)
}
