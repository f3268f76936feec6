// Package analyzer holds the pieces every analyzer shares: a per-instance file
// cache, batched reads, progress notifications and the common result shape.
package analyzer

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"structscope/internal/cache/memory"
)

// FileRecord is a file's content plus the metadata analyzers report on.
type FileRecord struct {
	Path         string    `json:"path"`
	Content      string    `json:"content"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Extension    string    `json:"extension"`
}

// Progress is the payload handed to a ProgressFunc.
type Progress struct {
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// CacheStats reports both caches owned by a Base.
type CacheStats struct {
	Content memory.Stats `json:"content"`
	Info    memory.Stats `json:"info"`
}

// Base is embedded by every analyzer. Its caches are the only state that
// outlives one Analyze call; cached values are never mutated in place.
type Base struct {
	name    string
	opts    Options
	log     *slog.Logger
	content *memory.Cache[string, string]
	info    *memory.Cache[string, FileRecord]
	reads   singleflight.Group
}

// NewBase validates opts and builds the shared state. An error here is the
// only failure an analyzer constructor propagates.
func NewBase(name string, opts ...Option) (*Base, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	b := &Base{
		name: name,
		opts: o,
		log:  o.Logger.With("analyzer", name),
	}
	if o.EnableCache {
		b.content = memory.New[string, string](o.MaxCacheSize, o.CacheTimeout)
		b.info = memory.New[string, FileRecord](o.MaxCacheSize, o.CacheTimeout)
	}
	return b, nil
}

func (b *Base) Name() string         { return b.name }
func (b *Base) Logger() *slog.Logger { return b.log }
func (b *Base) BatchSize() int       { return b.opts.BatchSize }

// ReadFile returns the file's text, served from cache when possible.
// Concurrent reads of the same path share one underlying read.
func (b *Base) ReadFile(ctx context.Context, path string) (string, error) {
	if s, ok := b.content.Get(path); ok {
		return s, nil
	}
	if err := ctx.Err(); err != nil {
		return "", &IOError{Path: path, Op: "read", Err: err}
	}
	v, err, _ := b.reads.Do(path, func() (any, error) {
		data, err := b.opts.FS.ReadFile(path)
		if err != nil {
			return "", &IOError{Path: path, Op: "read", Err: err}
		}
		s := string(data)
		b.content.Set(path, s)
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// FileInfo returns content and metadata for path, cached separately from
// plain content reads.
func (b *Base) FileInfo(ctx context.Context, path string) (FileRecord, error) {
	if rec, ok := b.info.Get(path); ok {
		return rec, nil
	}
	content, err := b.ReadFile(ctx, path)
	if err != nil {
		return FileRecord{}, err
	}
	st, err := b.opts.FS.Stat(path)
	if err != nil {
		return FileRecord{}, &IOError{Path: path, Op: "stat", Err: err}
	}
	rec := FileRecord{
		Path:         path,
		Content:      content,
		Size:         st.Size(),
		LastModified: st.ModTime(),
		Extension:    strings.ToLower(filepath.Ext(path)),
	}
	b.info.Set(path, rec)
	return rec, nil
}

// Progress notifies the configured callback, if any.
func (b *Base) Progress(current, total int, message string) {
	p := NewProgress(current, total, message)
	b.log.Debug("progress", "current", current, "total", total, "message", message)
	if b.opts.OnProgress != nil {
		b.opts.OnProgress(p)
	}
}

// NewProgress computes the rounded percentage; an empty total counts as done.
func NewProgress(current, total int, message string) Progress {
	pct := 100
	if total > 0 {
		pct = int(math.Round(float64(current) / float64(total) * 100))
	}
	return Progress{Current: current, Total: total, Percentage: pct, Message: message}
}

// Invalidate drops cached entries for the given paths.
func (b *Base) Invalidate(paths ...string) {
	for _, p := range paths {
		b.content.Delete(p)
		b.info.Delete(p)
	}
}

func (b *Base) ClearCache() {
	b.content.Clear()
	b.info.Clear()
}

func (b *Base) CacheStats() CacheStats {
	return CacheStats{Content: b.content.Stats(), Info: b.info.Stats()}
}

// Close releases cached content. The Base must not be used afterwards.
func (b *Base) Close() error {
	b.ClearCache()
	return nil
}
