package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/payloadgen/internal/config"
	"github.com/okra-platform/payloadgen/internal/language"
)

type InitOptions struct {
	Language  string
	Document  string
	TargetDir string
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	Getwd() (string, error)
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

type InitCommand struct {
	filesystem FileSystem
	out        io.Writer
	save       func(cfg *config.Config, path string) error
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(out io.Writer) *InitCommand {
	return &InitCommand{
		filesystem: &osFileSystem{},
		out:        out,
		save:       (*config.Config).Save,
	}
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	dir, err := ic.filesystem.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := ic.filesystem.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	var options *InitOptions

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	if _, err := language.Lookup(options.Language); err != nil {
		return err
	}

	cfg := &config.Config{
		Document:  options.Document,
		TargetDir: options.TargetDir,
		Language:  options.Language,
	}
	cfg.ApplyDefaults()

	if err := ic.save(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(ic.out, "✅ Created %s for %s models\n", path, options.Language)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{
		Document:  "asyncapi.yaml",
		TargetDir: "./generated",
	}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	languages := make([]huh.Option[string], 0, len(language.All()))
	for _, spec := range language.All() {
		languages = append(languages, huh.NewOption(spec.ID.String(), spec.ID.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Language of the generated models").
				Options(languages...).
				Value(&options.Language),

			huh.NewInput().
				Title("AsyncAPI document").
				Description("Path to the document, relative to this directory").
				Value(&options.Document).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("document cannot be empty")
					}
					if _, err := ic.filesystem.Stat(s); err != nil {
						return fmt.Errorf("document %s not found", s)
					}
					return nil
				}),

			huh.NewInput().
				Title("Target directory").
				Description("Base directory for generated files").
				Value(&options.TargetDir),
		),
	)
}
