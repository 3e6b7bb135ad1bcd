package field

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/agilebank/seqfile/errs"
)

func (c *Codec) parseNumber(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if c.lenient {
			return 0, nil
		}

		return 0, fmt.Errorf("%w: empty Number", errs.ErrMalformedNumeric)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: Number %q", errs.ErrMalformedNumeric, raw)
	}

	return n, nil
}

// parseFloat inserts a decimal point before the last two digits.
// Slices shorter than three digits are zero padded first, so "5" is 0.05.
func (c *Codec) parseFloat(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if c.lenient {
			return 0, nil
		}

		return 0, fmt.Errorf("%w: empty Float", errs.ErrMalformedNumeric)
	}

	sign, digits := splitSign(s)
	if !isDigits(digits) {
		return 0, fmt.Errorf("%w: Float %q", errs.ErrMalformedNumeric, raw)
	}
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}

	point := len(digits) - 2
	f, err := strconv.ParseFloat(sign+digits[:point]+"."+digits[point:], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: Float %q", errs.ErrMalformedNumeric, raw)
	}

	return f, nil
}

// formatNumber renders value as an optionally signed digit string.
// Digit strings are passed through untouched so identifiers wider than
// any machine integer keep every digit.
func formatNumber(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case *big.Int:
		if v == nil {
			return "", fmt.Errorf("%w: nil *big.Int as Number", errs.ErrInvalidValue)
		}

		return v.String(), nil
	case json.Number:
		return numberFromString(string(v))
	case string:
		return numberFromString(v)
	case float64:
		return integralFloat(v)
	case float32:
		return integralFloat(float64(v))
	default:
		return "", fmt.Errorf("%w: %T as Number", errs.ErrInvalidValue, value)
	}
}

func numberFromString(s string) (string, error) {
	s = strings.TrimSpace(s)
	sign, digits := splitSign(s)
	if !isDigits(digits) {
		return "", fmt.Errorf("%w: %q as Number", errs.ErrInvalidValue, s)
	}
	if sign == "+" {
		sign = ""
	}

	return sign + digits, nil
}

func integralFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", fmt.Errorf("%w: %v as Number", errs.ErrInvalidValue, f)
	}

	return strconv.FormatFloat(f, 'f', 0, 64), nil
}

// formatFloat renders value*100 rounded to an integer.
func formatFloat(value any) (string, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return "", fmt.Errorf("%w: %q as Float", errs.ErrInvalidValue, string(v))
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q as Float", errs.ErrInvalidValue, v)
		}
		f = parsed
	default:
		s, err := formatNumber(value)
		if err != nil {
			return "", fmt.Errorf("%w: %T as Float", errs.ErrInvalidValue, value)
		}

		return s + "00", nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v as Float", errs.ErrInvalidValue, f)
	}

	cents := math.Round(f * 100)
	if cents == 0 {
		// avoid "-0"
		cents = 0
	}

	return strconv.FormatFloat(cents, 'f', 0, 64), nil
}

func splitSign(s string) (string, string) {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		return s[:1], s[1:]
	}

	return "", s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
