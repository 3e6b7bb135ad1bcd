package record

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/internal/options"
)

type config struct {
	codec      *field.Codec
	codecOpts  []field.Option
	logger     *zap.Logger
	linePrefix bool
	workers    int
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:     zap.NewNop(),
		linePrefix: true,
		workers:    runtime.GOMAXPROCS(0),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.codec != nil {
		if len(cfg.codecOpts) > 0 {
			return nil, fmt.Errorf("WithCodec cannot be combined with field options")
		}

		return cfg, nil
	}

	codec, err := field.NewCodec(cfg.codecOpts...)
	if err != nil {
		return nil, err
	}
	cfg.codec = codec

	return cfg, nil
}

// Option configures a Decoder or an Encoder. Options that only concern one
// side are ignored by the other.
type Option = options.Option[*config]

// WithCodec uses a preconfigured field codec. It excludes the field options
// below.
func WithCodec(c *field.Codec) Option {
	return options.New(func(cfg *config) error {
		if c == nil {
			return fmt.Errorf("nil codec")
		}
		cfg.codec = c

		return nil
	})
}

// WithDatePattern sets the pattern used to decode DATE fields.
func WithDatePattern(pattern string) Option {
	return fieldOption(field.WithDatePattern(pattern))
}

// WithLocation sets the timezone DATE fields are anchored in.
func WithLocation(loc *time.Location) Option {
	return fieldOption(field.WithLocation(loc))
}

// WithLenientNumbers decodes blank numeric fields as zero.
func WithLenientNumbers() Option {
	return fieldOption(field.WithLenientNumbers())
}

// WithOverflowPolicy sets how the encoder treats values wider than their
// column.
func WithOverflowPolicy(p format.OverflowPolicy) Option {
	return fieldOption(field.WithOverflowPolicy(p))
}

// WithFieldOptions passes arbitrary options to the field codec.
func WithFieldOptions(opts ...field.Option) Option {
	return options.NoError(func(cfg *config) {
		cfg.codecOpts = append(cfg.codecOpts, opts...)
	})
}

func fieldOption(o field.Option) Option {
	return WithFieldOptions(o)
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	})
}

// WithLinePrefix controls whether encoded lines start with their record
// type key. Enabled by default.
func WithLinePrefix(enabled bool) Option {
	return options.NoError(func(cfg *config) {
		cfg.linePrefix = enabled
	})
}

// WithWorkers bounds the goroutines used by Decoder.DecodeLines.
func WithWorkers(n int) Option {
	return options.New(func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		cfg.workers = n

		return nil
	})
}
