package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/format"
)

// Canonical returns a comparison key for a decoded value of type typ.
//
// Two values of the same field type are equal exactly when their canonical
// keys are equal: numbers compare numerically, text compares exactly and
// dates compare as instants.
func Canonical(typ format.FieldType, value any) (string, error) {
	switch typ {
	case format.TypeText:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: %T as Text", errs.ErrInvalidValue, value)
		}

		return s, nil
	case format.TypeNumber:
		n, ok := value.(int64)
		if !ok {
			return "", fmt.Errorf("%w: %T as Number", errs.ErrInvalidValue, value)
		}

		return strconv.FormatInt(n, 10), nil
	case format.TypeFloat:
		f, ok := value.(float64)
		if !ok {
			return "", fmt.Errorf("%w: %T as Float", errs.ErrInvalidValue, value)
		}

		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case format.TypeDate:
		t, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("%w: %T as Date", errs.ErrInvalidValue, value)
		}
		if t.IsZero() {
			return "0", nil
		}

		return strconv.FormatInt(t.Unix(), 10), nil
	default:
		return "", fmt.Errorf("%w: %d", errs.ErrInvalidFieldType, typ)
	}
}

// CanonicalKey returns the comparison key of a declared discriminator value.
//
// Declared values are written the way a person reads them, not the way they
// appear in the file: "1" or "001" for a Number, "1.99" for a Float, a date
// in the codec's decode pattern for a Date, and the exact trimmed text for a
// Text discriminator.
func (c *Codec) CanonicalKey(typ format.FieldType, declared string) (string, error) {
	var value any
	switch typ {
	case format.TypeText:
		value = strings.TrimSpace(declared)
	case format.TypeNumber:
		n, err := strconv.ParseInt(strings.TrimSpace(declared), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: discriminator %q", errs.ErrMalformedNumeric, declared)
		}
		value = n
	case format.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(declared), 64)
		if err != nil {
			return "", fmt.Errorf("%w: discriminator %q", errs.ErrMalformedNumeric, declared)
		}
		value = f
	case format.TypeDate:
		t, err := c.parseDate(declared)
		if err != nil {
			return "", err
		}
		value = t
	default:
		return "", fmt.Errorf("%w: %d", errs.ErrInvalidFieldType, typ)
	}

	return Canonical(typ, value)
}
