// Package resolve maps module specifiers found in source files to file paths.
package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are probed, in order, for extension-less specifiers.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json"}

// Resolver resolves relative specifiers. Exists decides whether a candidate
// path counts as a file; it defaults to a stat of the host file system.
type Resolver struct {
	Extensions []string
	Exists     func(path string) bool
}

func New(exists func(string) bool) *Resolver {
	return &Resolver{Extensions: DefaultExtensions, Exists: exists}
}

// IsRelative reports whether spec points into the project ("./x", "../x").
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// IsExternal reports whether spec names a package rather than a file.
func IsExternal(spec string) bool {
	return spec != "" && !IsRelative(spec) && !filepath.IsAbs(spec) && !strings.HasPrefix(spec, "/")
}

// ExternalModule is the conventional location of a package specifier.
func ExternalModule(spec string) string {
	return "node_modules/" + spec
}

// Resolve returns the file that spec, imported from sourceFile, refers to.
// Non-relative specifiers never resolve.
func (r *Resolver) Resolve(spec, sourceFile string) (string, bool) {
	if !IsRelative(spec) {
		return "", false
	}
	exts := r.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	exists := r.Exists
	if exists == nil {
		exists = fileExists
	}

	candidate := filepath.Clean(filepath.Join(filepath.Dir(sourceFile), filepath.FromSlash(spec)))
	if filepath.Ext(candidate) != "" && exists(candidate) {
		return candidate, true
	}
	for _, ext := range exts {
		if p := candidate + ext; exists(p) {
			return p, true
		}
	}
	for _, ext := range exts {
		if p := filepath.Join(candidate, "index"+ext); exists(p) {
			return p, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
