package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setOf(paths ...string) func(string) bool {
	m := map[string]bool{}
	for _, p := range paths {
		m[filepath.FromSlash(p)] = true
	}
	return func(p string) bool { return m[p] }
}

func TestResolve(t *testing.T) {
	r := New(setOf(
		"/src/b.ts",
		"/src/util/index.js",
		"/src/data.json",
		"/lib/c.jsx",
	))

	tests := []struct {
		name   string
		spec   string
		from   string
		want   string
		wantOK bool
	}{
		{"extension probe", "./b", "/src/a.ts", "/src/b.ts", true},
		{"index fallback", "./util", "/src/a.ts", "/src/util/index.js", true},
		{"explicit extension", "./data.json", "/src/a.ts", "/src/data.json", true},
		{"parent dir", "../lib/c", "/src/a.ts", "/lib/c.jsx", true},
		{"missing", "./nope", "/src/a.ts", "", false},
		{"bare package", "react", "/src/a.ts", "", false},
		{"absolute", "/src/b", "/src/a.ts", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.spec, filepath.FromSlash(tt.from))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveOnDisk(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "b.tsx")
	if err := os.WriteFile(target, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := &Resolver{}
	got, ok := r.Resolve("./b", filepath.Join(dir, "a.ts"))
	if !ok || got != target {
		t.Fatalf("Resolve = %q, %v; want %q", got, ok, target)
	}
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsRelative("./a"))
	assert.True(t, IsRelative("../a"))
	assert.False(t, IsRelative("a"))
	assert.True(t, IsExternal("lodash/fp"))
	assert.False(t, IsExternal("./x"))
	assert.Equal(t, "node_modules/react", ExternalModule("react"))
}
