// Package emit compiles every message payload and writes the generated
// source to the resolved output directory.
package emit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/okra-platform/payloadgen/internal/compiler"
	"github.com/okra-platform/payloadgen/internal/message"
	"github.com/okra-platform/payloadgen/internal/naming"
	"github.com/okra-platform/payloadgen/internal/options"
	"github.com/okra-platform/payloadgen/internal/render"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFilesystem wraps directory creation and file write failures
	ErrFilesystem = errors.New("filesystem failure")

	// ErrNameCollision is returned in strict mode when two messages map to the same file
	ErrNameCollision = errors.New("file name collision")

	// ErrInvalidName is returned when a message id yields an empty file name
	ErrInvalidName = errors.New("cannot derive file name")
)

// Option configures an Emitter
type Option func(*Emitter)

// WithFileSystem replaces the file system, used by tests
func WithFileSystem(fs FileSystem) Option {
	return func(e *Emitter) { e.fs = fs }
}

// WithConcurrency sets how many output files are produced at once
func WithConcurrency(n int) Option {
	return func(e *Emitter) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithStrictCollisions makes file name collisions fatal
func WithStrictCollisions(strict bool) Option {
	return func(e *Emitter) { e.strict = strict }
}

// Emitter writes one source file per message with a non-null payload
type Emitter struct {
	compiler    compiler.Compiler
	fs          FileSystem
	logger      zerolog.Logger
	concurrency int
	strict      bool
}

// NewEmitter creates an emitter using c to compile payloads
func NewEmitter(c compiler.Compiler, logger zerolog.Logger, opts ...Option) *Emitter {
	e := &Emitter{
		compiler:    c,
		fs:          OSFileSystem{},
		logger:      logger.With().Str("component", "emitter").Logger(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collision lists messages written to the same file, in write order
type Collision struct {
	FileName   string
	MessageIDs []string
}

// Summary describes the outcome of EmitAll
type Summary struct {
	// Written holds the paths written, one per emitted message
	Written []string

	// Skipped holds ids of messages with a null payload
	Skipped []string

	// Collisions lists file names shared by several messages. The last
	// message in input order wins.
	Collisions []Collision
}

// task is one message to compile
type task struct {
	id       string
	fileName string
	schema   message.Schema
}

// group holds every task writing the same file, in input order
type group struct {
	fileName string
	tasks    []task
}

// EmitAll compiles each message in msgs and writes the output below
// opts.OutputDir(). Messages with a null payload are skipped. The first
// compiler or filesystem error stops the run; files already written stay.
func (e *Emitter) EmitAll(ctx context.Context, opts *options.Options, msgs message.Collection) (*Summary, error) {
	summary := &Summary{}

	var tasks []task
	var groups []*group
	byName := make(map[string]*group)

	for _, entry := range msgs {
		schema := entry.Message.Payload()
		if message.IsNull(schema) {
			e.logger.Debug().Str("message", entry.ID).Msg("skipping null payload")
			summary.Skipped = append(summary.Skipped, entry.ID)
			continue
		}

		name := naming.PascalCase(entry.ID)
		if name == "" {
			return summary, fmt.Errorf("%w: message %q", ErrInvalidName, entry.ID)
		}

		t := task{id: entry.ID, fileName: name + "." + opts.FileExtension(), schema: schema}
		tasks = append(tasks, t)

		g, ok := byName[t.fileName]
		if !ok {
			g = &group{fileName: t.fileName}
			byName[t.fileName] = g
			groups = append(groups, g)
		}
		g.tasks = append(g.tasks, t)
	}

	for _, g := range groups {
		if len(g.tasks) < 2 {
			continue
		}
		c := Collision{FileName: g.fileName}
		for _, t := range g.tasks {
			c.MessageIDs = append(c.MessageIDs, t.id)
		}
		summary.Collisions = append(summary.Collisions, c)

		if e.strict {
			return summary, fmt.Errorf("%w: messages %s all map to %s",
				ErrNameCollision, strings.Join(c.MessageIDs, ", "), c.FileName)
		}
		e.logger.Warn().
			Str("file", c.FileName).
			Strs("messages", c.MessageIDs).
			Msg("messages share an output file, last one wins")
	}

	if e.concurrency <= 1 {
		for _, t := range tasks {
			path, err := e.emit(ctx, opts, t)
			if err != nil {
				return summary, err
			}
			summary.Written = append(summary.Written, path)
		}
		return summary, nil
	}

	// Groups are independent; tasks inside a group run in input order so the
	// surviving file is deterministic.
	written := make([][]string, len(groups))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			for _, t := range g.tasks {
				if err := egCtx.Err(); err != nil {
					return err
				}
				path, err := e.emit(egCtx, opts, t)
				if err != nil {
					return err
				}
				mu.Lock()
				written[i] = append(written[i], path)
				mu.Unlock()
			}
			return nil
		})
	}
	err := eg.Wait()

	for _, paths := range written {
		summary.Written = append(summary.Written, paths...)
	}
	return summary, err
}

// emit compiles one payload and writes it, returning the file path
func (e *Emitter) emit(ctx context.Context, opts *options.Options, t task) (string, error) {
	schemaJSON, err := t.schema.JSON()
	if err != nil {
		return "", fmt.Errorf("message %q: %w", t.id, err)
	}

	result, err := e.compiler.Compile(ctx, compiler.Request{
		Language:      opts.Language(),
		RenderOptions: render.ApplyDefaults(opts, t.id),
		SchemaName:    t.id,
		Schema:        schemaJSON,
	})
	if err != nil {
		return "", fmt.Errorf("message %q: %w", t.id, err)
	}

	dir := opts.OutputDir()
	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: message %q: failed to create directory %s: %w", ErrFilesystem, t.id, dir, err)
	}

	path := filepath.Join(dir, t.fileName)
	if err := e.fs.WriteFile(path, []byte(strings.Join(result.Lines, "\n")), 0644); err != nil {
		return "", fmt.Errorf("%w: message %q: failed to write %s: %w", ErrFilesystem, t.id, path, err)
	}

	e.logger.Info().
		Str("message", t.id).
		Str("path", path).
		Int("lines", len(result.Lines)).
		Msg("wrote payload types")

	return path, nil
}
