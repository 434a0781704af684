package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okra-platform/payloadgen/internal/options"
)

// FileName is the project configuration file searched for by LoadConfig
const FileName = "payloadgen.json"

// Config represents the payloadgen.json configuration file
type Config struct {
	Document         string         `json:"document" jsonschema:"description=Path to the AsyncAPI document (YAML or JSON)"`
	TargetDir        string         `json:"targetDir" jsonschema:"description=Base directory generated files are written below"`
	Language         string         `json:"language" jsonschema:"description=Target language identifier"`
	SubTargetDir     string         `json:"subTargetDir,omitempty" jsonschema:"description=Directory below targetDir that overrides the language default"`
	RenderOptions    RenderOptions  `json:"renderOptions,omitempty" jsonschema:"description=Options passed to the compiler renderer"`
	Compiler         CompilerConfig `json:"compiler"`
	Concurrency      int            `json:"concurrency,omitempty" jsonschema:"minimum=1,description=Number of files generated at once"`
	StrictCollisions bool           `json:"strictCollisions,omitempty" jsonschema:"description=Fail when two messages map to the same file"`
	Watch            WatchConfig    `json:"watch"`
}

// CompilerConfig selects the compiler backend
type CompilerConfig struct {
	Command string   `json:"command,omitempty" jsonschema:"description=Compiler executable (default quicktype)"`
	WASM    string   `json:"wasm,omitempty" jsonschema:"description=Path to a compiler WASI module; takes precedence over command"`
	Args    []string `json:"args,omitempty" jsonschema:"description=Extra arguments passed to the compiler executable"`
}

// WatchConfig contains watch mode configuration
type WatchConfig struct {
	Patterns []string `json:"patterns,omitempty"`
	Exclude  []string `json:"exclude,omitempty"`
}

// RenderOptions accepts either a JSON object or a string holding one, and
// keeps the JSON text for options.Resolve to validate.
type RenderOptions string

func (r *RenderOptions) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*r = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RenderOptions(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err != nil {
			return err
		}
		*r = RenderOptions(buf.String())
	}
	return nil
}

func (r RenderOptions) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(r)) && strings.HasPrefix(strings.TrimSpace(string(r)), "{") {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

// LoadConfig loads payloadgen.json from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.TargetDir == "" {
		c.TargetDir = "./generated"
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if len(c.Watch.Patterns) == 0 && c.Document != "" {
		c.Watch.Patterns = []string{filepath.Base(c.Document)}
	}
	if len(c.Watch.Exclude) == 0 {
		c.Watch.Exclude = []string{".git", "node_modules", filepath.Base(c.TargetDir)}
	}
}

// Parameters returns the generation parameters described by the config
func (c *Config) Parameters() options.Parameters {
	return options.Parameters{
		QuicktypeLanguage: c.Language,
		SubTargetDir:      c.SubTargetDir,
		RenderOptions:     string(c.RenderOptions),
	}
}

// Save writes the configuration as indented JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// loadConfigFromDir searches for payloadgen.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("no %s found in %s or any parent directory", FileName, startDir)
}
