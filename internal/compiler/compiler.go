// Package compiler drives the external schema-to-source compiler.
package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okra-platform/payloadgen/internal/language"
	"github.com/okra-platform/payloadgen/internal/options"
)

// ErrCompilerFailure wraps every error reported by a compiler backend
var ErrCompilerFailure = errors.New("compiler failure")

// Request is one schema compilation
type Request struct {
	Language      language.ID           `json:"language"`
	RenderOptions options.RenderOptions `json:"rendererOptions"`
	SchemaName    string                `json:"schemaName"`
	Schema        json.RawMessage       `json:"schema"`
}

// Result holds the generated source
type Result struct {
	Lines []string `json:"lines"`
}

// Compiler turns a JSON schema into source code for a target language
type Compiler interface {
	Compile(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a function to the Compiler interface
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Compile(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

func failure(schemaName string, err error) error {
	return fmt.Errorf("%w: schema %q: %w", ErrCompilerFailure, schemaName, err)
}

// splitLines splits compiler output into lines, dropping the final newline
func splitLines(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.TrimSuffix(out, "\n")
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\n")
}
