package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okra-platform/payloadgen/internal/options"
	"github.com/rs/zerolog"
)

// DefaultCommand is the quicktype executable looked up on PATH
const DefaultCommand = "quicktype"

// Runner executes a command and returns its stdout
type Runner func(ctx context.Context, name string, args []string) (stdout []byte, err error)

// ProcessCompiler runs the quicktype CLI once per schema
type ProcessCompiler struct {
	// Command is the executable to run, DefaultCommand when empty
	Command string

	// ExtraArgs are passed before the generated arguments
	ExtraArgs []string

	// TempDir holds schema files while the compiler runs, os.TempDir when empty
	TempDir string

	run    Runner
	logger zerolog.Logger
}

// NewProcessCompiler creates a compiler that invokes command
func NewProcessCompiler(command string, extraArgs []string, logger zerolog.Logger) *ProcessCompiler {
	if command == "" {
		command = DefaultCommand
	}
	return &ProcessCompiler{
		Command:   command,
		ExtraArgs: extraArgs,
		run:       runCommand,
		logger:    logger.With().Str("component", "compiler").Logger(),
	}
}

// WithRunner replaces the process runner, used by tests
func (c *ProcessCompiler) WithRunner(run Runner) *ProcessCompiler {
	c.run = run
	return c
}

func (c *ProcessCompiler) Compile(ctx context.Context, req Request) (*Result, error) {
	schemaFile, err := os.CreateTemp(c.TempDir, "payloadgen-*.schema.json")
	if err != nil {
		return nil, failure(req.SchemaName, fmt.Errorf("failed to create schema file: %w", err))
	}
	defer os.Remove(schemaFile.Name())

	if _, err := schemaFile.Write(req.Schema); err != nil {
		schemaFile.Close()
		return nil, failure(req.SchemaName, fmt.Errorf("failed to write schema file: %w", err))
	}
	if err := schemaFile.Close(); err != nil {
		return nil, failure(req.SchemaName, fmt.Errorf("failed to write schema file: %w", err))
	}

	args := c.Args(req, schemaFile.Name())
	c.logger.Debug().
		Str("command", c.Command).
		Strs("args", args).
		Msg("invoking compiler")

	stdout, err := c.run(ctx, c.Command, args)
	if err != nil {
		return nil, failure(req.SchemaName, err)
	}

	return &Result{Lines: splitLines(string(stdout))}, nil
}

// Args builds the quicktype command line for req reading schemaPath
func (c *ProcessCompiler) Args(req Request, schemaPath string) []string {
	args := append([]string{}, c.ExtraArgs...)
	args = append(args,
		"--lang", string(req.Language),
		"--src-lang", "schema",
		"--top-level", req.SchemaName,
	)
	args = append(args, RenderFlags(req.RenderOptions)...)
	return append(args, schemaPath)
}

// RenderFlags converts render options into command line flags, sorted by
// name. Booleans become --name or --no-name.
func RenderFlags(render options.RenderOptions) []string {
	keys := make([]string, 0, len(render))
	for k := range render {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flags []string
	for _, k := range keys {
		name := strings.TrimLeft(k, "-")
		v := render[k]
		if b, ok := v.AsBool(); ok {
			if b {
				flags = append(flags, "--"+name)
			} else {
				flags = append(flags, "--no-"+name)
			}
			continue
		}
		flags = append(flags, "--"+name, v.String())
	}
	return flags
}

func runCommand(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", filepath.Base(name), err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", filepath.Base(name), err, msg)
	}
	return stdout.Bytes(), nil
}
