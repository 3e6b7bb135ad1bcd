// Package errs holds the sentinel errors returned by seqfile packages.
//
// Callers match error kinds with errors.Is; the returned errors wrap these
// sentinels with the offending field, line or record type.
package errs

import "errors"

var (
	// ErrInvalidFieldType is returned when a field type tag is not one of the known types.
	ErrInvalidFieldType = errors.New("invalid field type")
	// ErrUnrecognizedSection is returned when no layout group matches a line's discriminator.
	ErrUnrecognizedSection = errors.New("unrecognized section")
	// ErrUnknownRecordType is returned when encoding a record type absent from the encode table.
	ErrUnknownRecordType = errors.New("unknown record type")
	// ErrMalformedNumeric is returned when a number or float slice is not a valid numeral.
	ErrMalformedNumeric = errors.New("malformed numeric value")
	// ErrMalformedDate is returned when a date slice does not match the date pattern.
	ErrMalformedDate = errors.New("malformed date value")
	// ErrInvalidDatePattern is returned for a date pattern without day, month and year tokens.
	ErrInvalidDatePattern = errors.New("invalid date pattern")
	// ErrValueOverflow is returned when an encoded value is wider than its column.
	ErrValueOverflow = errors.New("value overflows field length")
	// ErrInvalidValue is returned when a Go value cannot be encoded as the field type.
	ErrInvalidValue = errors.New("invalid value for field type")
	// ErrInvalidLayout is returned for a malformed field layout or layout set.
	ErrInvalidLayout = errors.New("invalid layout")
)
