// Package field converts between fixed-width column slices and typed values.
//
// A Codec parses raw column text into Go values and formats Go values back
// into exact-width columns for the four field types of format.FieldType:
//
//	Type         | Decoded Go type | Encoded form
//	-------------|-----------------|------------------------------------------
//	TypeText     | string          | right padded with spaces
//	TypeNumber   | int64           | left padded with '0'
//	TypeFloat    | float64         | value*100 as integer, left padded with '0'
//	TypeDate     | time.Time       | DDMMYY in the codec location
//
// Decoding dates uses the codec's date pattern (DDMMYYYY by default) while
// encoding always uses DDMMYY. The asymmetry is part of the file format.
//
// # Configuration
//
//	codec, err := field.NewCodec(
//	    field.WithDatePattern("YYMMDD"),
//	    field.WithLenientNumbers(),
//	)
//
// A Codec is safe for concurrent use as long as SetDatePattern is not called
// while other goroutines decode with it.
package field

import (
	"fmt"
	"time"
	_ "time/tzdata" // interchange timezone must resolve without a system zoneinfo

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/internal/options"
)

const (
	// DefaultDatePattern is the date pattern used to decode DATE fields.
	DefaultDatePattern = "DDMMYYYY"
	// EncodeDatePattern is the fixed pattern used to encode DATE fields.
	EncodeDatePattern = "DDMMYY"
	// DefaultLocationName is the interchange timezone.
	DefaultLocationName = "America/Sao_Paulo"
)

// Codec parses and formats field values.
type Codec struct {
	datePattern string
	decodeDate  datePattern
	encodeDate  datePattern
	location    *time.Location
	lenient     bool
	overflow    format.OverflowPolicy
}

// Option configures a Codec.
type Option = options.Option[*Codec]

// WithDatePattern sets the pattern used to decode DATE fields.
// Recognized tokens are YYYY, YY, MM and DD; any other character is a literal.
func WithDatePattern(pattern string) Option {
	return options.New(func(c *Codec) error {
		return c.SetDatePattern(pattern)
	})
}

// WithLocation sets the timezone DATE fields are anchored in.
func WithLocation(loc *time.Location) Option {
	return options.New(func(c *Codec) error {
		if loc == nil {
			return fmt.Errorf("nil location")
		}
		c.location = loc

		return nil
	})
}

// WithLocationName is WithLocation for an IANA zone name.
func WithLocationName(name string) Option {
	return options.New(func(c *Codec) error {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return fmt.Errorf("load location %q: %w", name, err)
		}
		c.location = loc

		return nil
	})
}

// WithLenientNumbers makes blank NUMBER and FLOAT slices decode as zero
// instead of failing with errs.ErrMalformedNumeric.
func WithLenientNumbers() Option {
	return options.NoError(func(c *Codec) {
		c.lenient = true
	})
}

// WithOverflowPolicy sets how Format treats values wider than their column.
func WithOverflowPolicy(p format.OverflowPolicy) Option {
	return options.New(func(c *Codec) error {
		switch p {
		case format.OverflowKeep, format.OverflowTruncate, format.OverflowError:
			c.overflow = p
			return nil
		default:
			return fmt.Errorf("invalid overflow policy: %v", p)
		}
	})
}

// NewCodec creates a Codec.
//
// Without options it decodes dates as DDMMYYYY in America/Sao_Paulo, rejects
// malformed numerics and keeps overlong values whole.
//
// Parameters:
//   - opts: WithDatePattern, WithLocation, WithLocationName,
//     WithLenientNumbers, WithOverflowPolicy
//
// Returns:
//   - *Codec: The configured codec
//   - error: errs.ErrInvalidDatePattern or an invalid option value
//
// Example:
//
//	codec, err := field.NewCodec(field.WithDatePattern("YYMMDD"))
//	v, err := codec.Parse(format.TypeDate, "890421")
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{
		location: interchangeLocation(),
		overflow: format.OverflowKeep,
	}
	if err := c.SetDatePattern(DefaultDatePattern); err != nil {
		return nil, err
	}
	c.encodeDate, _ = compileDatePattern(EncodeDatePattern)

	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// SetDatePattern changes the pattern used to decode DATE fields.
//
// It must not be called concurrently with decoding on the same Codec.
func (c *Codec) SetDatePattern(pattern string) error {
	p, err := compileDatePattern(pattern)
	if err != nil {
		return err
	}
	c.datePattern = pattern
	c.decodeDate = p

	return nil
}

// DatePattern returns the pattern used to decode DATE fields.
func (c *Codec) DatePattern() string {
	return c.datePattern
}

// Location returns the timezone DATE fields are anchored in.
func (c *Codec) Location() *time.Location {
	return c.location
}

// OverflowPolicy returns the policy applied to overlong values by Format.
func (c *Codec) OverflowPolicy() format.OverflowPolicy {
	return c.overflow
}

// Parse decodes one raw column slice according to typ.
//
// Parameters:
//   - typ: Field type of the column
//   - raw: Column text exactly as sliced from the line
//
// Returns:
//   - any: string (trimmed), int64, float64 (last two digits are cents) or
//     time.Time (zero for a blank or all-zero slice)
//   - error: errs.ErrMalformedNumeric, errs.ErrMalformedDate or
//     errs.ErrInvalidFieldType
func (c *Codec) Parse(typ format.FieldType, raw string) (any, error) {
	switch typ {
	case format.TypeText:
		return parseText(raw), nil
	case format.TypeNumber:
		return c.parseNumber(raw)
	case format.TypeFloat:
		return c.parseFloat(raw)
	case format.TypeDate:
		return c.parseDate(raw)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidFieldType, typ)
	}
}

// Format encodes value as a column of the given type and width.
//
// Text is padded with trailing spaces and numerics with leading zeros after
// the sign. Dates are always written as DDMMYY, whatever the width. Values
// wider than length follow the codec's overflow policy.
//
// Parameters:
//   - value: Go value to encode; see the package documentation for accepted types
//   - typ: Field type of the column
//   - length: Column width in runes
//
// Returns:
//   - string: The encoded column
//   - error: errs.ErrInvalidValue, errs.ErrValueOverflow or
//     errs.ErrInvalidFieldType
func (c *Codec) Format(value any, typ format.FieldType, length int) (string, error) {
	switch typ {
	case format.TypeText:
		return c.fit(formatText(value), length, padRight)
	case format.TypeNumber:
		s, err := formatNumber(value)
		if err != nil {
			return "", err
		}

		return c.fit(s, length, padZero)
	case format.TypeFloat:
		s, err := formatFloat(value)
		if err != nil {
			return "", err
		}

		return c.fit(s, length, padZero)
	case format.TypeDate:
		return c.formatDate(value)
	default:
		return "", fmt.Errorf("%w: %d", errs.ErrInvalidFieldType, typ)
	}
}

func interchangeLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultLocationName)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}

	return loc
}
