// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/okra-platform/payloadgen/internal/config"
)

// Flags holds command line values. Non-empty values override payloadgen.json.
type Flags struct {
	LogLevel         string
	ConfigPath       string
	Document         string
	TargetDir        string
	Language         string
	SubTargetDir     string
	RenderOptions    string
	Compiler         string
	CompilerWASM     string
	Concurrency      int
	StrictCollisions bool
}

type Controller struct {
	Flags  *Flags
	Logger zerolog.Logger
	Out    io.Writer
}

func (c *Controller) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Controller) Generate(ctx context.Context) error {
	cfg, root, err := c.resolveConfig()
	if err != nil {
		return err
	}

	summary, err := NewGenerateCommand(cfg, root, c.Logger).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(c.out(), summary)
	return nil
}

func (c *Controller) Watch(ctx context.Context) error {
	cfg, root, err := c.resolveConfig()
	if err != nil {
		return err
	}

	return NewWatchCommand(cfg, root, c.out(), c.Logger).Run(ctx)
}

func (c *Controller) Languages(ctx context.Context) error {
	return printLanguages(c.out())
}

func (c *Controller) Init(ctx context.Context) error {
	return NewInitCommand(c.out()).Run(ctx)
}

func (c *Controller) ConfigSchema(ctx context.Context) error {
	data, err := config.Schema()
	if err != nil {
		return fmt.Errorf("failed to build config schema: %w", err)
	}
	_, err = fmt.Fprintln(c.out(), string(data))
	return err
}

// resolveConfig loads payloadgen.json (from --config or by searching upward
// from the working directory) and applies flag overrides. Without a config
// file the working directory is the project root and flags must supply the
// document and language.
func (c *Controller) resolveConfig() (*config.Config, string, error) {
	flags := c.Flags
	if flags == nil {
		flags = &Flags{}
	}

	var (
		cfg  *config.Config
		root string
		err  error
	)
	switch {
	case flags.ConfigPath != "":
		cfg, err = config.LoadConfigFromPath(flags.ConfigPath)
		if err != nil {
			return nil, "", err
		}
		root = filepath.Dir(flags.ConfigPath)
	default:
		cfg, root, err = config.LoadConfig()
		if err != nil {
			if flags.Document == "" || flags.Language == "" {
				return nil, "", err
			}
			c.Logger.Debug().Err(err).Msg("no config file, using flags only")
			cfg = &config.Config{}
			if root, err = os.Getwd(); err != nil {
				return nil, "", fmt.Errorf("failed to get current directory: %w", err)
			}
		}
	}

	applyFlags(cfg, flags)
	cfg.ApplyDefaults()

	if cfg.Document == "" {
		return nil, "", fmt.Errorf("no AsyncAPI document configured")
	}
	return cfg, root, nil
}

func applyFlags(cfg *config.Config, flags *Flags) {
	if flags.Document != "" {
		cfg.Document = flags.Document
	}
	if flags.TargetDir != "" {
		cfg.TargetDir = flags.TargetDir
	}
	if flags.Language != "" {
		cfg.Language = flags.Language
	}
	if flags.SubTargetDir != "" {
		cfg.SubTargetDir = flags.SubTargetDir
	}
	if flags.RenderOptions != "" {
		cfg.RenderOptions = config.RenderOptions(flags.RenderOptions)
	}
	if flags.Compiler != "" {
		cfg.Compiler.Command = flags.Compiler
	}
	if flags.CompilerWASM != "" {
		cfg.Compiler.WASM = flags.CompilerWASM
	}
	if flags.Concurrency > 0 {
		cfg.Concurrency = flags.Concurrency
	}
	if flags.StrictCollisions {
		cfg.StrictCollisions = true
	}
}

// projectPath resolves p against the project root
func projectPath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
