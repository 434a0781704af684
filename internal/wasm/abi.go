package wasm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Exports a compiler module provides. handle_request(methodPtr, methodLen,
// inputPtr, inputLen) returns its output as ptr<<32|len; the host releases
// every buffer with deallocate.
const (
	exportHandleRequest = "handle_request"
	exportAllocate      = "allocate"
	exportDeallocate    = "deallocate"
	exportInitialize    = "_initialize"
)

var requiredExports = []string{exportHandleRequest, exportAllocate, exportDeallocate}

// CompileMethod is the handle_request method that carries compile requests
const CompileMethod = "compile"

// ErrRejected is returned when the module answers with an error envelope
var ErrRejected = errors.New("compiler module rejected the request")

// response is the envelope returned for CompileMethod: {"lines":[...]} or
// {"error":"..."}
type response struct {
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

// decodeResponse unwraps the envelope. Missing lines mean empty output.
func decodeResponse(data []byte) ([]string, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	if resp.Lines == nil {
		return []string{}, nil
	}
	return resp.Lines, nil
}

func unpack(v uint64) (ptr, size uint32) {
	return uint32(v >> 32), uint32(v)
}
