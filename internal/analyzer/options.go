package analyzer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"structscope/internal/cache/memory"
	"structscope/internal/safeio"
)

const DefaultBatchSize = 10

// ProgressFunc receives progress notifications. The number of calls is
// analyzer specific; a final 100% call is not guaranteed.
type ProgressFunc func(Progress)

// Options configures a Base. Use the With* helpers to override defaults.
type Options struct {
	EnableCache  bool
	MaxCacheSize int           `validate:"gte=1"`
	CacheTimeout time.Duration `validate:"gt=0"`
	BatchSize    int           `validate:"gte=1"`
	OnProgress   ProgressFunc
	FS           safeio.FileSystem `validate:"required"`
	Logger       *slog.Logger      `validate:"required"`
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		EnableCache:  true,
		MaxCacheSize: memory.DefaultMaxEntries,
		CacheTimeout: memory.DefaultTTL,
		BatchSize:    DefaultBatchSize,
		FS:           safeio.OS{},
		Logger:       slog.Default(),
	}
}

func WithCache(enabled bool) Option {
	return func(o *Options) { o.EnableCache = enabled }
}

func WithMaxCacheSize(n int) Option {
	return func(o *Options) { o.MaxCacheSize = n }
}

func WithCacheTimeout(d time.Duration) Option {
	return func(o *Options) { o.CacheTimeout = d }
}

func WithBatchSize(n int) Option {
	return func(o *Options) { o.BatchSize = n }
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *Options) { o.OnProgress = fn }
}

func WithFileSystem(fsys safeio.FileSystem) Option {
	return func(o *Options) { o.FS = fsys }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return o, nil
}
