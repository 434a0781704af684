// Package render computes per-schema render options the compiler needs but
// cannot infer from schema content.
package render

import (
	"path"
	"strings"

	"github.com/okra-platform/payloadgen/internal/language"
	"github.com/okra-platform/payloadgen/internal/naming"
	"github.com/okra-platform/payloadgen/internal/options"
)

// Defaulter computes render options for one schema. Returned keys are only
// applied when the user did not set them.
type Defaulter func(opts *options.Options, schemaName string) options.RenderOptions

// defaulters maps languages to their defaulting strategy. Languages without
// an entry pass render options through unchanged.
var defaulters = map[language.ID]Defaulter{
	language.CSharp: csharpDefaults,
	language.Java:   javaDefaults,
}

// ApplyDefaults returns the render options to use when compiling schemaName:
// the user's options plus any computed defaults for absent keys.
func ApplyDefaults(opts *options.Options, schemaName string) options.RenderOptions {
	out := opts.RenderOptions()

	defaulter, ok := defaulters[opts.Language()]
	if !ok {
		return out
	}

	for key, value := range defaulter(opts, schemaName) {
		if !out.Has(key) {
			out[key] = value
		}
	}
	return out
}

// csharpDefaults gives each schema its own namespace so types with the same
// name in different schemas do not collide.
func csharpDefaults(_ *options.Options, schemaName string) options.RenderOptions {
	return options.RenderOptions{
		"namespace": options.String(naming.PascalCase(schemaName) + "NameSpace"),
	}
}

// javaDefaults derives the package from the output directory, since Java
// requires the package to match the source path.
func javaDefaults(opts *options.Options, _ string) options.RenderOptions {
	dir := opts.SubTargetDir()
	if dir == "" {
		dir = opts.TargetDir()
	}

	pkg := JavaPackage(dir)
	if pkg == "" {
		return nil
	}
	return options.RenderOptions{"package": options.String(pkg)}
}

// javaSourceRoot is language.JavaSourceRoot in package notation
var javaSourceRoot = strings.ReplaceAll(language.JavaSourceRoot, "/", ".")

// JavaPackage converts a directory relative to the generator target into a
// Java package name, dropping a leading src/main/java.
//
//	src/main/java/com/acme/orders -> com.acme.orders
//	com/acme                      -> com.acme
func JavaPackage(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	dir = path.Clean("/" + dir)
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}

	pkg := strings.ReplaceAll(dir, "/", ".")
	switch {
	case pkg == javaSourceRoot:
		return ""
	case strings.HasPrefix(pkg, javaSourceRoot+"."):
		return strings.TrimPrefix(pkg, javaSourceRoot+".")
	}
	return pkg
}
