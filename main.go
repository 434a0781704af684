package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/payloadgen/internal/commands"
	"github.com/okra-platform/payloadgen/internal/language"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

// generationFlags are shared by generate and watch
func generationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to payloadgen.json (default: searched upward from the working directory)",
		},
		&cli.StringFlag{
			Name:    "document",
			Aliases: []string{"d"},
			Usage:   "AsyncAPI document (YAML or JSON)",
		},
		&cli.StringFlag{
			Name:    "target-dir",
			Aliases: []string{"o"},
			Usage:   "base directory for generated files",
		},
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   fmt.Sprintf("target language (%d supported, see 'payloadgen languages')", len(language.Names())),
		},
		&cli.StringFlag{
			Name:  "sub-target-dir",
			Usage: "directory below the target dir, overrides the language default",
		},
		&cli.StringFlag{
			Name:  "render-options",
			Usage: "JSON object of renderer options, e.g. '{\"just-types\":true}'",
		},
		&cli.StringFlag{
			Name:  "compiler",
			Usage: "compiler executable",
		},
		&cli.StringFlag{
			Name:  "compiler-wasm",
			Usage: "compiler WASI module, used instead of the executable",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "number of files generated at once",
		},
		&cli.BoolFlag{
			Name:  "strict-collisions",
			Usage: "fail when two messages map to the same file",
		},
	}
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	readFlags := func(ctx context.Context, c *cli.Command) (context.Context, error) {
		ctrl.Flags.ConfigPath = c.String("config")
		ctrl.Flags.Document = c.String("document")
		ctrl.Flags.TargetDir = c.String("target-dir")
		ctrl.Flags.Language = c.String("language")
		ctrl.Flags.SubTargetDir = c.String("sub-target-dir")
		ctrl.Flags.RenderOptions = c.String("render-options")
		ctrl.Flags.Compiler = c.String("compiler")
		ctrl.Flags.CompilerWASM = c.String("compiler-wasm")
		ctrl.Flags.Concurrency = int(c.Int("concurrency"))
		ctrl.Flags.StrictCollisions = c.Bool("strict-collisions")
		return ctx, nil
	}

	app := &cli.Command{
		Name:    "payloadgen",
		Usage:   "Generate typed models for AsyncAPI message payloads",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("PAYLOADGEN_LOG_LEVEL"),
				Value:   "warn",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = level.String()
			ctrl.Logger = log.Logger

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Generate one model file per message payload",
				Flags:  generationFlags(),
				Before: readFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx)
				},
			},
			{
				Name:   "watch",
				Usage:  "Regenerate models whenever the document changes",
				Flags:  generationFlags(),
				Before: readFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
			{
				Name:  "languages",
				Usage: "List supported target languages",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Languages(ctx)
				},
			},
			{
				Name:  "init",
				Usage: "Create a payloadgen.json in the current directory",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "config-schema",
				Usage: "Print the JSON Schema of payloadgen.json",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.ConfigSchema(ctx)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run payloadgen")
	}
}
