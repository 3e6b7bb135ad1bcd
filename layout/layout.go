// Package layout describes where fields sit on a fixed-width line and decides
// which field list applies to a given line.
//
// # Layout Sets
//
// A Set is either flat, one field list for every line:
//
//	set := layout.Flat(
//	    layout.Field{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
//	    layout.Field{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
//	)
//
// or sectioned, several field lists told apart by the value of each list's
// first field (the discriminator):
//
//	set := layout.Sectioned(
//	    layout.Group{Key: "1", Fields: headerFields},
//	    layout.Group{Key: "2", Fields: detailFields},
//	)
//
// The kind of a Set is fixed at construction; it is never inferred from the
// shape of its contents.
//
// # Resolution
//
// A Resolver compiles a Set once and picks the field list for each line. For
// sectioned sets it decodes every group's discriminator field from the line in
// group order and returns the first group whose declared Key equals the
// decoded value under the comparator of the discriminator's field type.
// Lines matching no group fail with errs.ErrUnrecognizedSection.
package layout

import (
	"fmt"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/format"
)

// Field is one positional field definition.
type Field struct {
	Name   string           // key of the decoded value in a record
	Offset int              // 1-based start column
	Length int              // width in characters
	Type   format.FieldType // parse and format rules
}

// Validate checks the field's own invariants. Overlap with other fields is
// not checked.
func (f Field) Validate() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: field at offset %d has no name", errs.ErrInvalidLayout, f.Offset)
	case f.Offset < 1:
		return fmt.Errorf("%w: field %q offset %d < 1", errs.ErrInvalidLayout, f.Name, f.Offset)
	case f.Length < 1:
		return fmt.Errorf("%w: field %q length %d < 1", errs.ErrInvalidLayout, f.Name, f.Length)
	case !f.Type.Valid():
		return fmt.Errorf("%w: field %q: %w: %d", errs.ErrInvalidLayout, f.Name, errs.ErrInvalidFieldType, f.Type)
	}

	return nil
}

// End returns the 0-based column just past the field.
func (f Field) End() int {
	return f.Offset - 1 + f.Length
}

// Slice returns the field's columns of line. Columns past the end of the
// line are dropped, so a short line yields a short or empty slice.
func (f Field) Slice(line []rune) string {
	start := f.Offset - 1
	if start < 0 || start >= len(line) {
		return ""
	}

	return string(line[start:min(f.End(), len(line))])
}

// Group is one section of a sectioned layout. Fields[0] is the discriminator.
type Group struct {
	Key    string  // declared discriminator value, e.g. "1" or "HDR"
	Fields []Field // ordered field list of the section
}

// Discriminator returns the group's first field.
func (g Group) Discriminator() Field {
	if len(g.Fields) == 0 {
		return Field{}
	}

	return g.Fields[0]
}

// Kind tells flat sets from sectioned ones.
type Kind uint8

const (
	KindFlat      Kind = iota + 1 // one field list for every line
	KindSectioned                 // field list chosen per line by discriminator
)

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "Flat"
	case KindSectioned:
		return "Sectioned"
	default:
		return "Unknown"
	}
}

// Set is a flat field list or an ordered list of sections.
// The zero Set is invalid.
type Set struct {
	kind   Kind
	fields []Field
	groups []Group
}

// Flat creates a set applying fields to every line.
func Flat(fields ...Field) Set {
	return Set{kind: KindFlat, fields: fields}
}

// Sectioned creates a set choosing among groups per line.
func Sectioned(groups ...Group) Set {
	return Set{kind: KindSectioned, groups: groups}
}

// Kind returns the set's kind.
func (s Set) Kind() Kind {
	return s.kind
}

// Fields returns the field list of a flat set, nil otherwise.
func (s Set) Fields() []Field {
	return s.fields
}

// Groups returns the sections of a sectioned set, nil otherwise.
func (s Set) Groups() []Group {
	return s.groups
}

// Validate checks every field and, for sectioned sets, that each group has a
// key and at least one field.
func (s Set) Validate() error {
	switch s.kind {
	case KindFlat:
		if len(s.fields) == 0 {
			return fmt.Errorf("%w: flat layout has no fields", errs.ErrInvalidLayout)
		}

		return validateFields(s.fields)
	case KindSectioned:
		if len(s.groups) == 0 {
			return fmt.Errorf("%w: sectioned layout has no groups", errs.ErrInvalidLayout)
		}
		for i, g := range s.groups {
			if g.Key == "" {
				return fmt.Errorf("%w: group %d has no key", errs.ErrInvalidLayout, i)
			}
			if len(g.Fields) == 0 {
				return fmt.Errorf("%w: group %q has no fields", errs.ErrInvalidLayout, g.Key)
			}
			if err := validateFields(g.Fields); err != nil {
				return fmt.Errorf("group %q: %w", g.Key, err)
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: empty layout set", errs.ErrInvalidLayout)
	}
}

func validateFields(fields []Field) error {
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	return nil
}
