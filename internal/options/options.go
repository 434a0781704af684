// Package options turns raw generation parameters into a validated,
// language-specific option set.
package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okra-platform/payloadgen/internal/language"
)

var (
	// ErrMissingLanguage is returned when no language identifier was supplied
	ErrMissingLanguage = errors.New("option 'quicktypeLanguage' is not provided")

	// ErrInvalidRenderOptions is returned when renderOptions is not a JSON object of scalars
	ErrInvalidRenderOptions = errors.New("invalid render options")
)

// Parameters are the raw generation parameters supplied by the host
type Parameters struct {
	// QuicktypeLanguage selects the target language (required)
	QuicktypeLanguage string `json:"quicktypeLanguage"`

	// SubTargetDir overrides the language default output directory. It is
	// relative to the generator target directory.
	SubTargetDir string `json:"subTargetDir,omitempty"`

	// RenderOptions is a JSON-encoded object passed to the compiler
	RenderOptions string `json:"renderOptions,omitempty"`
}

// Options is the resolved configuration for one generation run. Construct
// it with Resolve; the zero value is not usable.
type Options struct {
	language           language.Spec
	generatorTargetDir string
	targetDir          string
	renderOptions      RenderOptions
	parameters         Parameters
}

// Resolve validates parameters and computes the option set for a run
// writing below generatorTargetDir. It performs no I/O.
func Resolve(generatorTargetDir string, params Parameters) (*Options, error) {
	id := strings.TrimSpace(params.QuicktypeLanguage)
	if id == "" {
		return nil, ErrMissingLanguage
	}

	spec, err := language.Lookup(id)
	if err != nil {
		return nil, err
	}

	render, err := ParseRenderOptions(params.RenderOptions)
	if err != nil {
		return nil, err
	}

	targetDir := spec.DefaultTargetDir
	if params.SubTargetDir != "" {
		targetDir = params.SubTargetDir
	}

	return &Options{
		language:           spec,
		generatorTargetDir: generatorTargetDir,
		targetDir:          targetDir,
		renderOptions:      render,
		parameters:         params,
	}, nil
}

// ParseRenderOptions decodes a JSON object of scalar values. An empty or
// blank string yields an empty set.
func ParseRenderOptions(raw string) (RenderOptions, error) {
	if strings.TrimSpace(raw) == "" {
		return RenderOptions{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRenderOptions, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidRenderOptions)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidRenderOptions)
	}

	out := make(RenderOptions, len(obj))
	for key, raw := range obj {
		val, err := valueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: option %q: %v", ErrInvalidRenderOptions, key, err)
		}
		out[key] = val
	}
	return out, nil
}

// Language returns the target language identifier
func (o *Options) Language() language.ID { return o.language.ID }

// FileExtension returns the extension of generated files
func (o *Options) FileExtension() string { return o.language.FileExtension }

// GeneratorTargetDir returns the base directory supplied by the host
func (o *Options) GeneratorTargetDir() string { return o.generatorTargetDir }

// TargetDir returns the output directory relative to GeneratorTargetDir
func (o *Options) TargetDir() string { return o.targetDir }

// SubTargetDir returns the sub directory explicitly requested, if any
func (o *Options) SubTargetDir() string { return o.parameters.SubTargetDir }

// OutputDir returns the directory generated files are written to
func (o *Options) OutputDir() string {
	return filepath.Join(o.generatorTargetDir, o.targetDir)
}

// RenderOptions returns a copy of the user supplied render options
func (o *Options) RenderOptions() RenderOptions { return o.renderOptions.Clone() }

// Parameters returns the raw parameters the options were resolved from
func (o *Options) Parameters() Parameters { return o.parameters }
