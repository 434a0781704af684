// Package language holds the fixed table of target languages the payload
// compiler can emit, together with the file extension and output
// conventions of each.
package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLanguage is returned when an identifier is not in the registry
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ID identifies a target language. Values match the compiler's --lang names.
type ID string

const (
	CPlusPlus           ID = "cplusplus"
	CSharp              ID = "csharp"
	Crystal             ID = "crystal"
	Dart                ID = "dart"
	Elm                 ID = "elm"
	Golang              ID = "golang"
	Haskell             ID = "haskell"
	Java                ID = "java"
	JSONSchema          ID = "json-schema"
	JavaScript          ID = "javascript"
	JavaScriptPropTypes ID = "javascript-prop-types"
	Kotlin              ID = "kotlin"
	Pike                ID = "pike"
	Python              ID = "python"
	Rust                ID = "rust"
	Ruby                ID = "ruby"
	Swift               ID = "swift"
	TypeScript          ID = "typescript"
)

// JavaSourceRoot is the Maven/Gradle source root used as the Java output
// directory when no sub directory is configured.
const JavaSourceRoot = "src/main/java"

// Spec describes how output for a language is laid out on disk
type Spec struct {
	// ID is the compiler language identifier
	ID ID

	// FileExtension is the extension of generated files, without the leading dot
	FileExtension string

	// DefaultTargetDir is the directory, relative to the generator target
	// directory, used when the caller does not supply one. Empty means the
	// generator target directory itself.
	DefaultTargetDir string
}

// specs is ordered the way languages are listed to users
var specs = []Spec{
	{ID: CPlusPlus, FileExtension: "cpp"},
	{ID: CSharp, FileExtension: "cs"},
	{ID: Crystal, FileExtension: "cr"},
	{ID: Dart, FileExtension: "dart"},
	{ID: Elm, FileExtension: "elm"},
	{ID: Golang, FileExtension: "go"},
	{ID: Haskell, FileExtension: "hs"},
	{ID: Java, FileExtension: "java", DefaultTargetDir: JavaSourceRoot},
	{ID: JSONSchema, FileExtension: "json"},
	{ID: JavaScript, FileExtension: "js"},
	{ID: JavaScriptPropTypes, FileExtension: "js"},
	{ID: Kotlin, FileExtension: "kt"},
	{ID: Pike, FileExtension: "pike"},
	{ID: Python, FileExtension: "py"},
	{ID: Rust, FileExtension: "rs"},
	{ID: Ruby, FileExtension: "rb"},
	{ID: Swift, FileExtension: "swift"},
	{ID: TypeScript, FileExtension: "ts"},
}

var byID = func() map[ID]Spec {
	m := make(map[ID]Spec, len(specs))
	for _, s := range specs {
		if _, dup := m[s.ID]; dup {
			panic(fmt.Sprintf("language %q registered twice", s.ID))
		}
		if s.FileExtension == "" {
			panic(fmt.Sprintf("language %q has no file extension", s.ID))
		}
		m[s.ID] = s
	}
	return m
}()

// Lookup returns the registered language for id
func Lookup(id string) (Spec, error) {
	spec, ok := byID[ID(id)]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedLanguage, id, strings.Join(Names(), ", "))
	}
	return spec, nil
}

// All returns every registered language in listing order
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Names returns the identifiers of all registered languages
func Names() []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, string(s.ID))
	}
	return names
}

func (id ID) String() string {
	return string(id)
}
