package field

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agilebank/seqfile/errs"
)

type dateToken uint8

const (
	tokLiteral dateToken = iota
	tokYear4
	tokYear2
	tokMonth
	tokDay
)

type dateSegment struct {
	tok     dateToken
	literal rune
}

// datePattern is a compiled date pattern. Every segment is one rune wide
// except the numeric tokens, whose width is given by tokenWidth.
type datePattern struct {
	segments []dateSegment
	width    int
}

func tokenWidth(t dateToken) int {
	switch t {
	case tokYear4:
		return 4
	case tokYear2, tokMonth, tokDay:
		return 2
	default:
		return 1
	}
}

func compileDatePattern(pattern string) (datePattern, error) {
	var p datePattern
	var seen [5]int

	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		switch {
		case strings.HasPrefix(rest, "YYYY"):
			p.add(dateSegment{tok: tokYear4})
			seen[tokYear4]++
			i += 4
		case strings.HasPrefix(rest, "YY"):
			p.add(dateSegment{tok: tokYear2})
			seen[tokYear2]++
			i += 2
		case strings.HasPrefix(rest, "MM"):
			p.add(dateSegment{tok: tokMonth})
			seen[tokMonth]++
			i += 2
		case strings.HasPrefix(rest, "DD"):
			p.add(dateSegment{tok: tokDay})
			seen[tokDay]++
			i += 2
		default:
			r, size := utf8.DecodeRuneInString(rest)
			p.add(dateSegment{tok: tokLiteral, literal: r})
			i += size
		}
	}

	if seen[tokDay] != 1 || seen[tokMonth] != 1 || seen[tokYear4]+seen[tokYear2] != 1 {
		return datePattern{}, fmt.Errorf("%w: %q needs exactly one DD, MM and YYYY or YY", errs.ErrInvalidDatePattern, pattern)
	}

	return p, nil
}

func (p *datePattern) add(s dateSegment) {
	p.segments = append(p.segments, s)
	p.width += tokenWidth(s.tok)
}

// parse reads raw, which must be exactly as wide as the pattern.
func (p datePattern) parse(raw string, loc *time.Location) (time.Time, error) {
	runes := []rune(raw)
	if len(runes) != p.width {
		return time.Time{}, fmt.Errorf("expected %d characters, got %d", p.width, len(runes))
	}

	var year, month, day int
	pos := 0
	for _, seg := range p.segments {
		w := tokenWidth(seg.tok)
		if seg.tok == tokLiteral {
			if runes[pos] != seg.literal {
				return time.Time{}, fmt.Errorf("expected %q at position %d", seg.literal, pos+1)
			}
			pos += w

			continue
		}

		n, ok := atoiDigits(runes[pos : pos+w])
		if !ok {
			return time.Time{}, fmt.Errorf("non-digit in %q", string(runes[pos:pos+w]))
		}
		pos += w

		switch seg.tok {
		case tokYear4:
			year = n
		case tokYear2:
			year = pivotYear(n)
		case tokMonth:
			month = n
		case tokDay:
			day = n
		case tokLiteral:
		}
	}

	t, ok := StartOfDay(year, time.Month(month), day, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("day %02d-%02d-%04d out of range", day, month, year)
	}

	return t, nil
}

// StartOfDay returns the first instant of a calendar day in loc.
//
// That is local midnight, except on days whose midnight is skipped by a
// daylight saving change (São Paulo moved its clocks from 00:00 to 01:00 on
// the first day of summer time until 2018). On those days the result is the
// instant the clocks jump to, still on the requested day.
//
// Parameters:
//   - year, month, day: The calendar day, not normalized
//   - loc: Timezone the day is counted in
//
// Returns:
//   - time.Time: First instant of the day
//   - bool: false if the day does not exist (for example 31 February)
func StartOfDay(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	noon := time.Date(year, month, day, 12, 0, 0, 0, loc)
	if noon.Year() != year || noon.Month() != month || noon.Day() != day {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	for t.Day() != day && t.Before(noon) {
		t = t.Add(time.Hour)
	}

	return t, true
}

func (p datePattern) format(t time.Time) string {
	var sb strings.Builder
	sb.Grow(p.width)
	for _, seg := range p.segments {
		switch seg.tok {
		case tokYear4:
			fmt.Fprintf(&sb, "%04d", t.Year())
		case tokYear2:
			fmt.Fprintf(&sb, "%02d", t.Year()%100)
		case tokMonth:
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
		case tokDay:
			fmt.Fprintf(&sb, "%02d", t.Day())
		case tokLiteral:
			sb.WriteRune(seg.literal)
		}
	}

	return sb.String()
}

// pivotYear expands a two-digit year: 69-99 is the 1900s, 00-68 the 2000s.
func pivotYear(yy int) int {
	if yy >= 69 {
		return 1900 + yy
	}

	return 2000 + yy
}

func atoiDigits(rs []rune) (int, bool) {
	n := 0
	for _, r := range rs {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}

	return n, true
}

// parseDate decodes a DATE slice. Blank and all-zero slices are the usual
// "no date" filler and decode to the zero time.
func (c *Codec) parseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Trim(trimmed, "0") == "" {
		return time.Time{}, nil
	}

	t, err := c.decodeDate.parse(trimmed, c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q with pattern %s: %w", errs.ErrMalformedDate, raw, c.datePattern, err)
	}

	return t, nil
}

func (c *Codec) formatDate(value any) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v != nil {
			t = *v
		}
	default:
		return "", fmt.Errorf("%w: %T as Date", errs.ErrInvalidValue, value)
	}

	if t.IsZero() {
		return strings.Repeat("0", c.encodeDate.width), nil
	}

	return c.encodeDate.format(t.In(c.location)), nil
}
