package wasm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyModule is the smallest valid binary: magic number and version only
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// responseOffset is where testModule stores its canned response
const responseOffset = 1024

// testModule assembles a compiler module whose handle_request always answers
// with response. allocate always returns 0 and deallocate does nothing.
func testModule(response string) []byte {
	section := func(id byte, body ...[]byte) []byte {
		var content []byte
		for _, b := range body {
			content = append(content, b...)
		}
		out := append([]byte{id}, uleb(uint32(len(content)))...)
		return append(out, content...)
	}
	name := func(s string) []byte {
		return append(uleb(uint32(len(s))), s...)
	}
	body := func(instrs ...byte) []byte {
		code := append([]byte{0x00}, instrs...) // no locals
		code = append(code, 0x0b)
		return append(uleb(uint32(len(code))), code...)
	}

	result := int64(responseOffset)<<32 | int64(len(response))
	handle := append([]byte{0x42}, sleb(result)...) // i64.const

	module := append([]byte{}, emptyModule...)
	module = append(module, section(0x01, // types
		[]byte{0x03},
		[]byte{0x60, 0x01, 0x7f, 0x01, 0x7f},                   // (i32) -> i32
		[]byte{0x60, 0x01, 0x7f, 0x00},                         // (i32) -> ()
		[]byte{0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7e}, // (i32 i32 i32 i32) -> i64
	)...)
	module = append(module, section(0x03, []byte{0x03, 0x00, 0x01, 0x02})...) // functions
	module = append(module, section(0x05, []byte{0x01, 0x00, 0x01})...)       // one page of memory

	module = append(module, section(0x07, // exports
		[]byte{0x04},
		name("memory"), []byte{0x02, 0x00},
		name("allocate"), []byte{0x00, 0x00},
		name("deallocate"), []byte{0x00, 0x01},
		name("handle_request"), []byte{0x00, 0x02},
	)...)
	module = append(module, section(0x0a, // code
		[]byte{0x03},
		body(0x41, 0x00), // i32.const 0
		body(),
		body(handle...),
	)...)
	offset := append([]byte{0x41}, sleb(responseOffset)...)
	module = append(module, section(0x0b, // data
		[]byte{0x01, 0x00},
		offset, []byte{0x0b},
		name(response),
	)...)
	return module
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func TestNewModule_Invalid(t *testing.T) {
	ctx := context.Background()

	_, err := NewModule(ctx, nil)
	assert.ErrorContains(t, err, "wasm bytes cannot be empty")

	_, err = NewModule(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to compile module")
}

func TestNewModule_RequiresCompilerExports(t *testing.T) {
	_, err := NewModule(context.Background(), emptyModule)
	assert.EqualError(t, err, "not a compiler module, missing exports: handle_request, allocate, deallocate")
}

func TestWorker_Compile(t *testing.T) {
	ctx := context.Background()

	module, err := NewModule(ctx, testModule(`{"lines":["export interface Ping {","}"]}`))
	require.NoError(t, err)
	defer module.Close(ctx)

	w, err := module.Instantiate(ctx)
	require.NoError(t, err)
	defer w.Close(ctx)

	lines, err := w.Compile(ctx, []byte(`{"language":"typescript","schemaName":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"export interface Ping {", "}"}, lines)

	// Test: a worker serves repeated calls
	lines, err = w.Compile(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestWorker_CompileRejected(t *testing.T) {
	ctx := context.Background()

	module, err := NewModule(ctx, testModule(`{"error":"unsupported keyword"}`))
	require.NoError(t, err)
	defer module.Close(ctx)

	w, err := module.Instantiate(ctx)
	require.NoError(t, err)
	defer w.Close(ctx)

	_, err = w.Compile(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorContains(t, err, "unsupported keyword")
}

func TestPool_WithCompiledModule(t *testing.T) {
	ctx := context.Background()

	module, err := NewModule(ctx, testModule(`{"lines":["ok"]}`))
	require.NoError(t, err)
	defer module.Close(ctx)

	p, err := NewPool(ctx, PoolConfig{MinWorkers: 1, MaxWorkers: 2, Module: module})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	lines, err := p.Compile(ctx, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, lines)
}

func TestLoadModule(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := LoadModule(ctx, filepath.Join(dir, "missing.wasm"))
	assert.ErrorContains(t, err, "failed to read compiler module")

	path := filepath.Join(dir, "compiler.wasm")
	require.NoError(t, os.WriteFile(path, testModule(`{"lines":[]}`), 0644))

	module, err := LoadModule(ctx, path)
	require.NoError(t, err)
	assert.NoError(t, module.Close(ctx))
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr string
	}{
		{"lines", `{"lines":["a","b"]}`, []string{"a", "b"}, ""},
		{"missing lines", `{}`, []string{}, ""},
		{"error envelope", `{"error":"boom"}`, nil, "compiler module rejected the request: boom"},
		{"not json", `nope`, nil, "failed to decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := decodeResponse([]byte(tt.data))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}
