// Package format defines the enumerations shared by every seqfile package:
// field types, payload compression types and encode overflow policies.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	FieldType       uint8
	CompressionType uint8
	OverflowPolicy  uint8
)

// Field types. The numeric values are stable and may appear in layout files.
const (
	TypeText   FieldType = 0x1 // TypeText is a space padded, trimmed string.
	TypeNumber FieldType = 0x2 // TypeNumber is a zero padded base-10 integer.
	TypeFloat  FieldType = 0x3 // TypeFloat is a fixed-point decimal with two implied fraction digits.
	TypeDate   FieldType = 0x4 // TypeDate is a calendar date.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	OverflowKeep     OverflowPolicy = 0x0 // OverflowKeep emits overlong values whole.
	OverflowTruncate OverflowPolicy = 0x1 // OverflowTruncate cuts overlong values to the column width.
	OverflowError    OverflowPolicy = 0x2 // OverflowError rejects overlong values.
)

func (t FieldType) String() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeNumber:
		return "Number"
	case TypeFloat:
		return "Float"
	case TypeDate:
		return "Date"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	return t >= TypeText && t <= TypeDate
}

// ParseFieldType maps a layout file type name to a FieldType.
//
// Names are case-insensitive. Besides the String() names it accepts the
// aliases "integer", "decimal", "fixed_decimal" and the numeric tags 1-4.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string":
		return TypeText, nil
	case "number", "integer", "int":
		return TypeNumber, nil
	case "float", "decimal", "fixed_decimal":
		return TypeFloat, nil
	case "date":
		return TypeDate, nil
	}

	if n, err := strconv.Atoi(s); err == nil && FieldType(n).Valid() { //nolint:gosec
		return FieldType(n), nil
	}

	return 0, fmt.Errorf("unknown field type %q", s)
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps "none", "zstd", "s2" or "lz4" to a CompressionType.
// An empty string means no compression.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression type %q", s)
	}
}

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowKeep:
		return "Keep"
	case OverflowTruncate:
		return "Truncate"
	case OverflowError:
		return "Error"
	default:
		return "Unknown"
	}
}
