package analyzer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structscope/internal/safeio"
)

type countingFS struct {
	safeio.OS
	reads atomic.Int32
}

func (c *countingFS) ReadFile(name string) ([]byte, error) {
	c.reads.Add(1)
	return c.OS.ReadFile(name)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewBaseRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero cache size", WithMaxCacheSize(0)},
		{"negative batch", WithBatchSize(-1)},
		{"zero timeout", WithCacheTimeout(0)},
		{"nil fs", WithFileSystem(nil)},
		{"nil logger", WithLogger(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBase("test", tt.opt)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestNewBaseDoesNotLeakGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		b, err := NewBase("x")
		require.NoError(t, err)
		require.NoError(t, b.Close())
	}
	runtime.GC()
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+2)
}

func TestReadFileCachesContent(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "const a = 1;")
	fsys := &countingFS{}

	b, err := NewBase("test", WithFileSystem(fsys))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := b.ReadFile(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "const a = 1;", got)
	}
	assert.Equal(t, int32(1), fsys.reads.Load())
	assert.Equal(t, int64(2), b.CacheStats().Content.Hits)

	b.Invalidate(p)
	_, err = b.ReadFile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fsys.reads.Load())
}

func TestReadFileWithoutCache(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.js", "x")
	fsys := &countingFS{}
	b, err := NewBase("test", WithFileSystem(fsys), WithCache(false))
	require.NoError(t, err)

	_, _ = b.ReadFile(context.Background(), p)
	_, _ = b.ReadFile(context.Background(), p)
	assert.Equal(t, int32(2), fsys.reads.Load())
}

func TestReadFileReturnsIOError(t *testing.T) {
	b, err := NewBase("test")
	require.NoError(t, err)

	_, err = b.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFileInfo(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "Main.TS", "let x = 1;\n")
	b, err := NewBase("test")
	require.NoError(t, err)

	rec, err := b.FileInfo(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, rec.Path)
	assert.Equal(t, ".ts", rec.Extension)
	assert.Equal(t, int64(11), rec.Size)
	assert.WithinDuration(t, time.Now(), rec.LastModified, time.Minute)
}

func TestProcessBatchKeepsOrderAndBoundsConcurrency(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	var inFlight, peak atomic.Int32

	out := ProcessBatch(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		if n == 4 {
			return 0, errors.New("bad item")
		}
		return n * 10, nil
	})

	require.Len(t, out, len(items))
	for i, o := range out {
		if items[i] == 4 {
			assert.Error(t, o.Err)
			continue
		}
		assert.NoError(t, o.Err)
		assert.Equal(t, items[i]*10, o.Value)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestProcessBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := ProcessBatch(ctx, []int{1, 2, 3, 4}, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			cancel()
		}
		return n, nil
	})
	assert.NoError(t, out[0].Err)
	assert.NoError(t, out[1].Err)
	assert.ErrorIs(t, out[2].Err, context.Canceled)
	assert.ErrorIs(t, out[3].Err, context.Canceled)
}

func TestProcessBatchRecoversPanics(t *testing.T) {
	out := ProcessBatch(context.Background(), []string{"ok", "boom"}, 0, func(_ context.Context, s string) (string, error) {
		if s == "boom" {
			panic("boom")
		}
		return s, nil
	})
	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
}

func TestProgress(t *testing.T) {
	var got []Progress
	b, err := NewBase("test", WithProgress(func(p Progress) { got = append(got, p) }))
	require.NoError(t, err)

	b.Progress(1, 3, "one")
	b.Progress(0, 0, "empty")
	require.Len(t, got, 2)
	assert.Equal(t, 33, got[0].Percentage)
	assert.Equal(t, 100, got[1].Percentage)
}

func TestFilterFiles(t *testing.T) {
	in := []string{"/a/x.ts", "/a/y.JS", "/a/z.go", "/a/README"}
	assert.Equal(t, []string{"/a/x.ts", "/a/y.JS"}, FilterFiles(in, []string{".ts", "js"}))
}

func TestFindMatches(t *testing.T) {
	re := regexp.MustCompile(`(\w+)=(\d+)`)
	text := "a=1 b=2 c=x"

	all := FindMatches(text, re, true)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"b", "2"}, all[1].Groups)
	assert.Equal(t, 4, all[1].Index)

	first := FindMatches(text, re, false)
	require.Len(t, first, 1)
	assert.Equal(t, "a=1", first[0].Text)
}

func TestLineAndColumn(t *testing.T) {
	s := "ab\ncd\nef"
	assert.Equal(t, 1, LineNumber(s, 1))
	assert.Equal(t, 2, LineNumber(s, 3))
	assert.Equal(t, 3, LineNumber(s, 100))
	assert.Equal(t, 2, ColumnNumber(s, 4))
	assert.Equal(t, 1, ColumnNumber(s, 0))
}

func TestRemoveComments(t *testing.T) {
	src := "const u = 'http://x/y'; // trailing\n/* block\nspans */ call();\n"
	got := RemoveComments(src)
	assert.Contains(t, got, "'http://x/y'")
	assert.NotContains(t, got, "trailing")
	assert.NotContains(t, got, "spans")
	assert.Contains(t, got, "call();")
	assert.Equal(t, 3, LineNumber(got, len(got)-1))
}

func TestMatchingClose(t *testing.T) {
	s := `f(a, ")", g(b)) + x`
	assert.Equal(t, 14, MatchingClose(s, 1))
	assert.Equal(t, 13, MatchingClose(s, 11))
	assert.Equal(t, -1, MatchingClose("{ open", 0))
	assert.Equal(t, -1, MatchingClose("abc", 0))
	assert.Equal(t, 6, MatchingClose("{a:{b}}", 0))
}

func TestExtractStringLiterals(t *testing.T) {
	got := ExtractStringLiterals(`a('x'); b("y\"z"); c(` + "`t`" + `)`)
	assert.Equal(t, []string{"x", `y\"z`, "t"}, got)
}

func TestValidateResult(t *testing.T) {
	var r Result
	ValidateResult(&r)
	assert.NotNil(t, r.Errors)
	assert.NotNil(t, r.Warnings)
	assert.NotNil(t, r.Metadata)

	b, err := NewBase("test")
	require.NoError(t, err)
	nr := b.NewResult()
	assert.NotEmpty(t, nr.Metadata["analysisId"])
}

func TestCheckPaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "a.js")
	assert.NoError(t, CheckPaths([]string{abs}))
	assert.NoError(t, CheckPaths(nil))
	assert.ErrorIs(t, CheckPaths([]string{abs, ""}), ErrInvalidPaths)
	assert.ErrorIs(t, CheckPaths([]string{"rel/a.js"}), ErrInvalidPaths)
}
