package field

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/format"
)

type padMode uint8

const (
	padRight padMode = iota // text: value then spaces
	padZero                 // numerics: zeros then value, sign first
)

func parseText(raw string) string {
	return strings.TrimSpace(raw)
}

func formatText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// fit pads s to length runes and applies the overflow policy to wider values.
func (c *Codec) fit(s string, length int, mode padMode) (string, error) {
	n := utf8.RuneCountInString(s)
	if n > length {
		switch c.overflow {
		case format.OverflowError:
			return "", fmt.Errorf("%w: %q is %d wide, column is %d", errs.ErrValueOverflow, s, n, length)
		case format.OverflowTruncate:
			return truncate(s, length, mode)
		case format.OverflowKeep:
		}

		return s, nil
	}

	if mode == padRight {
		return s + strings.Repeat(" ", length-n), nil
	}

	sign, digits := splitSign(s)

	return sign + strings.Repeat("0", length-n) + digits, nil
}

// truncate keeps the leading runes of text and the trailing digits of
// numerics. A negative numeric keeps its sign, so it needs at least two
// columns.
func truncate(s string, length int, mode padMode) (string, error) {
	runes := []rune(s)
	if mode == padRight {
		return string(runes[:length]), nil
	}

	sign, digits := splitSign(s)
	if sign == "-" {
		if length < 2 {
			return "", fmt.Errorf("%w: %q cannot keep its sign in %d column", errs.ErrValueOverflow, s, length)
		}

		return sign + digits[len(digits)-(length-1):], nil
	}

	return string(runes[len(runes)-length:]), nil
}
