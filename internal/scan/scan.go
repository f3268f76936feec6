package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultIgnoreDirs are VCS, dependency and build output directories that
// never hold first-party sources.
var DefaultIgnoreDirs = []string{".git", ".hg", ".svn", "node_modules", "vendor", "dist", "build", "target", ".next", ".cache", "coverage"}

// Options controls a project walk.
type Options struct {
	// IgnoreDirs are directory base names to skip. Nil means DefaultIgnoreDirs.
	IgnoreDirs []string
	// Extensions restricts files to these extensions (case-insensitive,
	// with or without the leading dot). Empty keeps every non-binary file.
	Extensions []string
	// MaxDepth limits recursion; 0 means unlimited and 1 keeps only root files.
	MaxDepth int
}

// FileVisit carries per-file metadata to callbacks.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "src/app.js").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// Lowercased extension (e.g., ".ts"); empty for files without one.
	Ext  string
	Size int64
}

// VisitFunc is invoked for every kept file in lexical order.
type VisitFunc func(f FileVisit)

// Walk visits every file under root that passes opts.
func Walk(root string, opts Options, cb VisitFunc) error {
	if strings.TrimSpace(root) == "" {
		return errors.New("scan: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("scan: resolve root: %w", err)
	}
	ignore := opts.IgnoreDirs
	if ignore == nil {
		ignore = DefaultIgnoreDirs
	}
	exts := normalizeExts(opts.Extensions)

	return filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == abs {
				return fmt.Errorf("scan: %w", err)
			}
			return nil
		}
		rel, _ := filepath.Rel(abs, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p == abs {
				return nil
			}
			if slices.Contains(ignore, d.Name()) {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth(rel) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || isBinary(p) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if len(exts) > 0 && !slices.Contains(exts, ext) {
			return nil
		}
		var size int64
		if info, e := d.Info(); e == nil {
			size = info.Size()
		}
		if cb != nil {
			cb(FileVisit{Path: rel, AbsPath: p, Ext: ext, Size: size})
		}
		return nil
	})
}

// Files returns the sorted absolute paths Walk would visit.
func Files(root string, opts Options) ([]string, error) {
	var out []string
	err := Walk(root, opts, func(f FileVisit) { out = append(out, f.AbsPath) })
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

func normalizeExts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func depth(rel string) int {
	return strings.Count(rel, "/") + 1
}

func isBinary(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	// images
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".bmp", ".tiff", ".svg":
		return true
	// video
	case ".mp4", ".m4v", ".mov", ".mkv", ".webm", ".avi":
		return true
	// audio
	case ".mp3", ".wav", ".ogg", ".flac", ".m4a":
		return true
	// archives / others
	case ".pdf", ".zip", ".jar", ".gz", ".tgz", ".bz2", ".7z", ".exe", ".dll", ".dylib", ".so", ".woff", ".woff2":
		return true
	}
	return false
}
