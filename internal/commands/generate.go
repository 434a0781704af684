package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/okra-platform/payloadgen/internal/compiler"
	"github.com/okra-platform/payloadgen/internal/config"
	"github.com/okra-platform/payloadgen/internal/emit"
	"github.com/okra-platform/payloadgen/internal/message"
	"github.com/okra-platform/payloadgen/internal/options"
)

// CompilerFactory builds the compiler for a run and returns a function
// releasing it.
type CompilerFactory func(ctx context.Context, cfg *config.Config, root string, logger zerolog.Logger) (compiler.Compiler, func(), error)

// DocumentLoader reads the messages of an AsyncAPI document
type DocumentLoader func(path string) (message.Collection, error)

type GenerateCommand struct {
	config      *config.Config
	root        string
	logger      zerolog.Logger
	newCompiler CompilerFactory
	load        DocumentLoader
	filesystem  emit.FileSystem
}

func NewGenerateCommand(cfg *config.Config, root string, logger zerolog.Logger) *GenerateCommand {
	return &GenerateCommand{
		config:      cfg,
		root:        root,
		logger:      logger.With().Str("component", "generate").Logger(),
		newCompiler: defaultCompiler,
		load:        message.LoadDocument,
		filesystem:  emit.OSFileSystem{},
	}
}

// Run generates one file per message of the configured document
func (g *GenerateCommand) Run(ctx context.Context) (*emit.Summary, error) {
	targetDir := projectPath(g.root, g.config.TargetDir)
	opts, err := options.Resolve(targetDir, g.config.Parameters())
	if err != nil {
		return nil, err
	}

	document := projectPath(g.root, g.config.Document)
	msgs, err := g.load(document)
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Str("document", document).
		Str("language", opts.Language().String()).
		Str("outputDir", opts.OutputDir()).
		Int("messages", len(msgs)).
		Msg("generating models")

	comp, release, err := g.newCompiler(ctx, g.config, g.root, g.logger)
	if err != nil {
		return nil, err
	}
	defer release()

	emitter := emit.NewEmitter(comp, g.logger,
		emit.WithFileSystem(g.filesystem),
		emit.WithConcurrency(g.config.Concurrency),
		emit.WithStrictCollisions(g.config.StrictCollisions),
	)
	return emitter.EmitAll(ctx, opts, msgs)
}

// defaultCompiler prefers a configured WASM module over the quicktype executable
func defaultCompiler(ctx context.Context, cfg *config.Config, root string, logger zerolog.Logger) (compiler.Compiler, func(), error) {
	if cfg.Compiler.WASM != "" {
		wc, err := compiler.LoadWASMCompiler(ctx, projectPath(root, cfg.Compiler.WASM), cfg.Concurrency, logger)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := wc.Close(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("failed to close wasm compiler")
			}
		}
		return wc, release, nil
	}

	command := cfg.Compiler.Command
	if command == "" {
		command = compiler.DefaultCommand
	}
	return compiler.NewProcessCompiler(command, cfg.Compiler.Args, logger), func() {}, nil
}

func printSummary(w io.Writer, summary *emit.Summary) {
	for _, path := range summary.Written {
		fmt.Fprintf(w, "  wrote %s\n", path)
	}
	for _, c := range summary.Collisions {
		fmt.Fprintf(w, "  collision %s: %v\n", c.FileName, c.MessageIDs)
	}
	fmt.Fprintf(w, "✅ %d written, %d skipped\n", len(summary.Written), len(summary.Skipped))
}
