package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/okra-platform/payloadgen/internal/config"
	"github.com/okra-platform/payloadgen/internal/watch"
)

// DefaultDebounce is the quiet period before a change triggers regeneration
const DefaultDebounce = 300 * time.Millisecond

type WatchCommand struct {
	config   *config.Config
	root     string
	out      io.Writer
	logger   zerolog.Logger
	generate *GenerateCommand
	debounce time.Duration
	// For testing: signalled after each regeneration
	regenerated chan<- error
}

func NewWatchCommand(cfg *config.Config, root string, out io.Writer, logger zerolog.Logger) *WatchCommand {
	return &WatchCommand{
		config:   cfg,
		root:     root,
		out:      out,
		logger:   logger.With().Str("component", "watch").Logger(),
		generate: NewGenerateCommand(cfg, root, logger),
		debounce: DefaultDebounce,
	}
}

// Run generates once, then regenerates on every matching change until ctx
// is done. Generation errors are logged and watching continues.
func (w *WatchCommand) Run(ctx context.Context) error {
	w.regenerate(ctx)

	debouncer := watch.NewDebouncer(w.debounce, func() { w.regenerate(ctx) })
	defer debouncer.Stop()

	onChange := func(path string, op fsnotify.Op) {
		w.logger.Debug().Str("path", path).Str("op", op.String()).Msg("change detected")
		debouncer.Trigger()
	}

	fw, err := watch.NewFileWatcher(w.config.Watch.Patterns, w.config.Watch.Exclude, onChange, w.logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(projectPath(w.root, w.config.Document))
	if err := fw.AddDirectory(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info().Str("dir", dir).Strs("patterns", w.config.Watch.Patterns).Msg("watching for changes")
	fmt.Fprintf(w.out, "👀 Watching %s for changes (Ctrl+C to stop)\n", dir)

	err = fw.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *WatchCommand) regenerate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	summary, err := w.generate.Run(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("generation failed")
		fmt.Fprintf(w.out, "❌ %v\n", err)
	} else {
		printSummary(w.out, summary)
	}

	if w.regenerated != nil {
		w.regenerated <- err
	}
}
