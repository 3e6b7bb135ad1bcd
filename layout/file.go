package layout

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
)

type yamlField struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
	Type   string `yaml:"type"`
}

type yamlGroup struct {
	Key    string      `yaml:"key"`
	Fields []yamlField `yaml:"fields"`
}

type yamlDefinition struct {
	DatePattern    string                 `yaml:"date_pattern"`
	Location       string                 `yaml:"location"`
	LenientNumbers bool                   `yaml:"lenient_numbers"`
	Overflow       string                 `yaml:"overflow"`
	Fields         []yamlField            `yaml:"fields"`
	Sections       []yamlGroup            `yaml:"sections"`
	Records        map[string][]yamlField `yaml:"records"`
}

// Definition is a layout file: the decode set, the encode table and the
// codec settings that go with them.
//
//	date_pattern: DDMMYYYY
//	sections:
//	  - key: "1"
//	    fields:
//	      - {name: type, offset: 1, length: 1, type: number}
//	      - {name: date, offset: 2, length: 8, type: date}
//	records:
//	  "1":
//	    - {name: date, offset: 2, length: 8, type: date}
//
// JSON documents are accepted as well.
type Definition struct {
	DatePattern    string
	Location       string
	LenientNumbers bool
	Overflow       format.OverflowPolicy

	set     Set
	records map[string][]Field
}

// LoadDefinition reads and parses a layout file.
func LoadDefinition(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}

	def, err := ParseDefinition(b)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}

	return def, nil
}

// ParseDefinition parses a YAML or JSON layout document.
func ParseDefinition(data []byte) (*Definition, error) {
	var doc yamlDefinition
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidLayout, err)
	}

	def := &Definition{
		DatePattern:    doc.DatePattern,
		Location:       doc.Location,
		LenientNumbers: doc.LenientNumbers,
	}

	switch doc.Overflow {
	case "", "keep":
		def.Overflow = format.OverflowKeep
	case "truncate":
		def.Overflow = format.OverflowTruncate
	case "error":
		def.Overflow = format.OverflowError
	default:
		return nil, fmt.Errorf("%w: unknown overflow policy %q", errs.ErrInvalidLayout, doc.Overflow)
	}

	switch {
	case len(doc.Fields) > 0 && len(doc.Sections) > 0:
		return nil, fmt.Errorf("%w: both fields and sections given", errs.ErrInvalidLayout)
	case len(doc.Fields) > 0:
		fields, err := mapFields(doc.Fields)
		if err != nil {
			return nil, err
		}
		def.set = Flat(fields...)
	case len(doc.Sections) > 0:
		groups := make([]Group, 0, len(doc.Sections))
		for _, g := range doc.Sections {
			fields, err := mapFields(g.Fields)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", g.Key, err)
			}
			groups = append(groups, Group{Key: g.Key, Fields: fields})
		}
		def.set = Sectioned(groups...)
	case len(doc.Records) == 0:
		return nil, fmt.Errorf("%w: no fields, sections or records", errs.ErrInvalidLayout)
	}

	if def.set.Kind() != 0 {
		if err := def.set.Validate(); err != nil {
			return nil, err
		}
	}

	if len(doc.Records) > 0 {
		def.records = make(map[string][]Field, len(doc.Records))
		for key, fs := range doc.Records {
			fields, err := mapFields(fs)
			if err != nil {
				return nil, fmt.Errorf("record %q: %w", key, err)
			}
			if err := validateFields(fields); err != nil {
				return nil, fmt.Errorf("record %q: %w", key, err)
			}
			def.records[key] = fields
		}
	}

	return def, nil
}

func mapFields(in []yamlField) ([]Field, error) {
	out := make([]Field, 0, len(in))
	for _, f := range in {
		typ, err := format.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", errs.ErrInvalidFieldType, f.Name, err)
		}
		out = append(out, Field{Name: f.Name, Offset: f.Offset, Length: f.Length, Type: typ})
	}

	return out, nil
}

// Set returns the decode layout. It is the zero Set when the document only
// declares records.
func (d *Definition) Set() Set {
	return d.set
}

// HasSet reports whether the document declares a decode layout.
func (d *Definition) HasSet() bool {
	return d.set.Kind() != 0
}

// EncodeTable returns the record type → field list table for encoding.
func (d *Definition) EncodeTable() map[string][]Field {
	return d.records
}

// RecordTypes returns the encode table keys in sorted order.
func (d *Definition) RecordTypes() []string {
	keys := make([]string, 0, len(d.records))
	for k := range d.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// CodecOptions returns the field codec options declared by the document.
func (d *Definition) CodecOptions() []field.Option {
	var opts []field.Option
	if d.DatePattern != "" {
		opts = append(opts, field.WithDatePattern(d.DatePattern))
	}
	if d.Location != "" {
		opts = append(opts, field.WithLocationName(d.Location))
	}
	if d.LenientNumbers {
		opts = append(opts, field.WithLenientNumbers())
	}
	opts = append(opts, field.WithOverflowPolicy(d.Overflow))

	return opts
}
