package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/record"
)

func decodeCmd(a *app) *cobra.Command {
	var layoutPath, input, compression string

	c := &cobra.Command{
		Use:   "decode",
		Short: "Decode a flat file into JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := layout.LoadDefinition(layoutPath)
			if err != nil {
				return err
			}
			if !def.HasSet() {
				return fmt.Errorf("layout %s declares no fields or sections to decode", layoutPath)
			}

			comp, err := parseCompression(compression)
			if err != nil {
				return err
			}

			dec, err := record.NewDecoder(a.options(def)...)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()

			var recs iter.Seq2[record.Record, error]
			if comp == format.CompressionNone {
				recs = dec.DecodeReader(in, def.Set())
			} else {
				payload, err := io.ReadAll(in)
				if err != nil {
					return err
				}
				recs = dec.DecodeCompressed(payload, comp, def.Set())
			}

			return a.writeRecords(cmd.OutOrStdout(), recs)
		},
	}

	c.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout definition file, YAML or JSON (required)")
	c.Flags().StringVarP(&input, "input", "i", "-", "flat file to decode, - for stdin")
	c.Flags().StringVarP(&compression, "compression", "c", "none", "input compression: none, zstd, s2 or lz4")

	_ = c.MarkFlagRequired("layout")

	return c
}

// writeRecords prints one JSON object per record. Lines that fail to decode
// are logged and counted; they do not stop the output.
func (a *app) writeRecords(w io.Writer, recs iter.Seq2[record.Record, error]) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	written, failed := 0, 0
	for rec, err := range recs {
		if err != nil {
			var lineErr *record.LineError
			if !errors.As(err, &lineErr) {
				return err
			}
			failed++
			a.logger.Warn("skipping line",
				zap.Int("line", lineErr.Line),
				zap.Error(lineErr.Err))

			continue
		}

		buf.Reset()
		if err := enc.Encode(rec); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		written++
	}

	a.logger.Debug("decode finished", zap.Int("records", written), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d line(s) failed to decode", failed)
	}

	return nil
}
