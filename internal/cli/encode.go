package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/record"
)

// jsonBatch is one element of the encode input:
//
//	[{"type": "1", "records": [{"id": 10, "date": "2016-02-01", "name": "ACME"}]}]
type jsonBatch struct {
	Type    string           `json:"type"`
	Records []map[string]any `json:"records"`
}

var instantLayouts = []string{time.RFC3339, time.RFC3339Nano}

func encodeCmd(a *app) *cobra.Command {
	var layoutPath, input, output, compression string

	c := &cobra.Command{
		Use:   "encode",
		Short: "Encode JSON record batches into a flat file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := layout.LoadDefinition(layoutPath)
			if err != nil {
				return err
			}
			table := record.EncodeTable(def.EncodeTable())
			if len(table) == 0 {
				return fmt.Errorf("layout %s declares no records to encode", layoutPath)
			}

			comp, err := parseCompression(compression)
			if err != nil {
				return err
			}

			enc, err := record.NewEncoder(a.options(def)...)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()

			data, err := readDataTable(in, table, def.RecordTypes(), enc.Codec().Location())
			if err != nil {
				return err
			}

			payload, err := enc.EncodeCompressed(table, data, comp)
			if err != nil {
				return err
			}

			return writeOutput(cmd, output, payload)
		},
	}

	c.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout definition file, YAML or JSON (required)")
	c.Flags().StringVarP(&input, "input", "i", "-", "JSON batches to encode, - for stdin")
	c.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	c.Flags().StringVarP(&compression, "compression", "c", "none", "output compression: none, zstd, s2 or lz4")

	_ = c.MarkFlagRequired("layout")

	return c
}

// readDataTable decodes JSON batches and converts DATE values from their
// JSON string form. known lists the record types of table for error
// messages.
func readDataTable(r io.Reader, table record.EncodeTable, known []string, loc *time.Location) (record.DataTable, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var batches []jsonBatch
	if err := dec.Decode(&batches); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var data record.DataTable
	for _, b := range batches {
		if _, ok := table[b.Type]; !ok {
			return nil, fmt.Errorf("%w: %q, layout declares %s", errs.ErrUnknownRecordType, b.Type, strings.Join(known, ", "))
		}

		recs := make([]record.Record, 0, len(b.Records))
		for i, raw := range b.Records {
			rec := record.Record(raw)
			if err := coerceDates(rec, table[b.Type], loc); err != nil {
				return nil, fmt.Errorf("record %q #%d: %w", b.Type, i+1, err)
			}
			recs = append(recs, rec)
		}
		data.Add(b.Type, recs...)
	}

	return data, nil
}

func coerceDates(rec record.Record, fields []layout.Field, loc *time.Location) error {
	for _, f := range fields {
		if f.Type != format.TypeDate {
			continue
		}
		s, ok := rec[f.Name].(string)
		if !ok {
			continue
		}

		t, err := parseJSONDate(s, loc)
		if err != nil {
			return &record.FieldError{Field: f.Name, Type: f.Type, Err: err}
		}
		rec[f.Name] = t
	}

	return nil
}

// parseJSONDate reads a calendar day (YYYY-MM-DD) as the start of that day
// in loc, or an RFC 3339 timestamp as is.
func parseJSONDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	if d, err := time.Parse(time.DateOnly, s); err == nil {
		if t, ok := field.StartOfDay(d.Year(), d.Month(), d.Day(), loc); ok {
			return t, nil
		}
	}
	for _, l := range instantLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q is not a date", errs.ErrInvalidValue, s)
}

func writeOutput(cmd *cobra.Command, path string, payload []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(payload)
		return err
	}

	return os.WriteFile(path, payload, 0o644) //nolint:gosec
}
