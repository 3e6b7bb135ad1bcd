package record

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/lines"
)

func flatSet() layout.Set {
	return layout.Flat(
		layout.Field{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
		layout.Field{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
	)
}

func sectionedSet() layout.Set {
	return layout.Sectioned(
		layout.Group{Key: "1", Fields: []layout.Field{
			{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber},
			{Name: "id", Offset: 2, Length: 3, Type: format.TypeNumber},
			{Name: "name", Offset: 5, Length: 10, Type: format.TypeText},
		}},
		layout.Group{Key: "2", Fields: []layout.Field{
			{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber},
			{Name: "amount", Offset: 2, Length: 7, Type: format.TypeFloat},
		}},
	)
}

func newTestDecoder(t *testing.T, opts ...Option) *Decoder {
	t.Helper()
	d, err := NewDecoder(opts...)
	require.NoError(t, err)

	return d
}

func requireDate(t *testing.T, want time.Time, got any) {
	t.Helper()
	ts, ok := got.(time.Time)
	require.True(t, ok, "got %T", got)
	require.True(t, want.Equal(ts), "want %s, got %s", want, ts)
}

func april21(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(field.DefaultLocationName)
	require.NoError(t, err)

	return time.Date(1989, time.April, 21, 0, 0, 0, 0, loc)
}

func TestNewDecoder_Options(t *testing.T) {
	codec, err := field.NewCodec()
	require.NoError(t, err)

	d := newTestDecoder(t, WithCodec(codec))
	require.Same(t, codec, d.Codec())

	_, err = NewDecoder(WithCodec(codec), WithLenientNumbers())
	require.Error(t, err)

	_, err = NewDecoder(WithCodec(nil))
	require.Error(t, err)

	_, err = NewDecoder(WithWorkers(0))
	require.Error(t, err)

	_, err = NewDecoder(WithDatePattern("YYYY"))
	require.ErrorIs(t, err, errs.ErrInvalidDatePattern)
}

func TestDecodeRow_Flat(t *testing.T) {
	d := newTestDecoder(t)

	rec, err := d.DecodeRow("00121041989", flatSet())
	require.NoError(t, err)
	require.Len(t, rec, 2)
	require.Equal(t, int64(1), rec["id"])
	requireDate(t, april21(t), rec["date"])
}

func TestDecodeRow_DatePattern(t *testing.T) {
	d := newTestDecoder(t, WithDatePattern("YYMMDD"))
	set := layout.Flat(
		layout.Field{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
		layout.Field{Name: "date", Offset: 4, Length: 6, Type: format.TypeDate},
	)

	rec, err := d.DecodeRow("001890421", set)
	require.NoError(t, err)
	requireDate(t, april21(t), rec["date"])
}

func TestDecodeRow_Sectioned(t *testing.T) {
	d := newTestDecoder(t)

	rec, err := d.DecodeRow("20001250", sectionedSet())
	require.NoError(t, err)
	require.Equal(t, Record{"type": int64(2), "amount": 12.5}, rec)

	rec, err = d.DecodeRow("1007ALICE     ", sectionedSet())
	require.NoError(t, err)
	require.Equal(t, Record{"type": int64(1), "id": int64(7), "name": "ALICE"}, rec)
}

func TestDecodeRow_UnrecognizedSection(t *testing.T) {
	d := newTestDecoder(t)

	_, err := d.DecodeRow("3000", sectionedSet())
	require.ErrorIs(t, err, errs.ErrUnrecognizedSection)

	var se *layout.SectionError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "3000", se.Line)
}

func TestDecodeRow_ShortLine(t *testing.T) {
	d := newTestDecoder(t)
	set := layout.Flat(
		layout.Field{Name: "code", Offset: 1, Length: 2, Type: format.TypeText},
		layout.Field{Name: "memo", Offset: 3, Length: 10, Type: format.TypeText},
		layout.Field{Name: "tail", Offset: 20, Length: 5, Type: format.TypeText},
	)

	rec, err := d.DecodeRow("ABxyz", set)
	require.NoError(t, err)
	require.Equal(t, Record{"code": "AB", "memo": "xyz", "tail": ""}, rec)

	rec, err = d.DecodeRow("1", flatSet())
	require.NoError(t, err)
	require.Equal(t, int64(1), rec["id"])
	require.True(t, rec["date"].(time.Time).IsZero())

	_, err = d.DecodeRow("ab", flatSet())
	require.ErrorIs(t, err, errs.ErrMalformedNumeric)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "id", fe.Field)
}

func TestDecodeRow_Runes(t *testing.T) {
	d := newTestDecoder(t)
	set := layout.Flat(
		layout.Field{Name: "name", Offset: 1, Length: 4, Type: format.TypeText},
		layout.Field{Name: "id", Offset: 5, Length: 2, Type: format.TypeNumber},
	)

	rec, err := d.DecodeRow("AÇÃO42", set)
	require.NoError(t, err)
	require.Equal(t, Record{"name": "AÇÃO", "id": int64(42)}, rec)
}

func TestDecodeRow_LastFieldWins(t *testing.T) {
	d := newTestDecoder(t)
	set := layout.Flat(
		layout.Field{Name: "v", Offset: 1, Length: 2, Type: format.TypeNumber},
		layout.Field{Name: "v", Offset: 3, Length: 2, Type: format.TypeNumber},
	)

	rec, err := d.DecodeRow("1234", set)
	require.NoError(t, err)
	require.Equal(t, Record{"v": int64(34)}, rec)
}

func TestDecodeRow_InvalidSet(t *testing.T) {
	d := newTestDecoder(t)

	_, err := d.DecodeRow("001", layout.Flat())
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}

func TestAll_ContinuesAfterLineError(t *testing.T) {
	d := newTestDecoder(t)
	src := lines.FromStrings("00121041989", "abc21041989", "", "00221041989")

	var recs []Record
	var lineErrs []*LineError
	for rec, err := range d.All(src, flatSet()) {
		if err != nil {
			var le *LineError
			require.True(t, errors.As(err, &le))
			lineErrs = append(lineErrs, le)
			continue
		}
		recs = append(recs, rec)
	}

	require.Len(t, recs, 2)
	require.Equal(t, int64(1), recs[0]["id"])
	require.Equal(t, int64(2), recs[1]["id"])

	require.Len(t, lineErrs, 1)
	require.Equal(t, 2, lineErrs[0].Line)
	require.Equal(t, "abc21041989", lineErrs[0].Raw)
	require.ErrorIs(t, lineErrs[0], errs.ErrMalformedNumeric)
}

func TestAll_SkipsBlankItems(t *testing.T) {
	d := newTestDecoder(t)
	src := iter.Seq2[string, error](func(yield func(string, error) bool) {
		for _, l := range []string{"00121041989", "   ", "00221041989"} {
			if !yield(l, nil) {
				return
			}
		}
	})

	n := 0
	for _, err := range d.All(src, flatSet()) {
		require.NoError(t, err)
		n++
	}
	require.Equal(t, 2, n)
}

func TestAll_SourceErrorStops(t *testing.T) {
	d := newTestDecoder(t)
	boom := errors.New("boom")
	src := iter.Seq2[string, error](func(yield func(string, error) bool) {
		if !yield("00121041989", nil) {
			return
		}
		if !yield("", boom) {
			return
		}
		yield("00221041989", nil)
	})

	var got []error
	n := 0
	for _, err := range d.All(src, flatSet()) {
		n++
		got = append(got, err)
	}

	require.Equal(t, 2, n)
	require.NoError(t, got[0])
	require.ErrorIs(t, got[1], boom)
}

func TestAll_InvalidSet(t *testing.T) {
	d := newTestDecoder(t)

	n := 0
	for rec, err := range d.All(lines.FromStrings("001"), layout.Sectioned()) {
		n++
		require.Nil(t, rec)
		require.ErrorIs(t, err, errs.ErrInvalidLayout)
	}
	require.Equal(t, 1, n)
}

func TestAll_Break(t *testing.T) {
	d := newTestDecoder(t)
	src := lines.FromStrings("00121041989", "00221041989", "00321041989")

	n := 0
	for range d.All(src, flatSet()) {
		n++
		break
	}
	require.Equal(t, 1, n)
}

func TestDecodeReader_PhysicalLineNumbers(t *testing.T) {
	d := newTestDecoder(t)
	input := "00121041989\r\n\n\nxyz21041989\n00321041989"

	var lineNos []int
	var ids []int64
	for rec, err := range d.DecodeReader(strings.NewReader(input), flatSet()) {
		if err != nil {
			var le *LineError
			require.True(t, errors.As(err, &le))
			lineNos = append(lineNos, le.Line)
			continue
		}
		ids = append(ids, rec["id"].(int64))
	}

	require.Equal(t, []int64{1, 3}, ids)
	require.Equal(t, []int{4}, lineNos)
}

func TestDecodeLines_KeepsOrder(t *testing.T) {
	d := newTestDecoder(t, WithWorkers(4))

	ls := make([]string, 0, 101)
	for i := range 100 {
		ls = append(ls, fmt.Sprintf("%03d21041989", i))
	}
	ls = append(ls, "")
	ls[50] = "bad21041989"

	results, err := d.DecodeLines(ls, flatSet())
	require.NoError(t, err)
	require.Len(t, results, 100)

	for i, res := range results {
		require.Equal(t, i+1, res.Line)
		if i == 50 {
			require.ErrorIs(t, res.Err, errs.ErrMalformedNumeric)
			require.Nil(t, res.Record)
			continue
		}
		require.NoError(t, res.Err)
		require.Equal(t, int64(i), res.Record["id"])
	}
}

func TestDecodeLines_SingleWorkerMatchesParallel(t *testing.T) {
	ls := []string{"20001250", "1007ALICE     ", "9", "1008BOB       "}

	serial, err := newTestDecoder(t, WithWorkers(1)).DecodeLines(ls, sectionedSet())
	require.NoError(t, err)
	parallel, err := newTestDecoder(t, WithWorkers(8)).DecodeLines(ls, sectionedSet())
	require.NoError(t, err)

	require.Equal(t, serial, parallel)
	require.ErrorIs(t, serial[2].Err, errs.ErrUnrecognizedSection)
}

func TestDecodeLines_InvalidSet(t *testing.T) {
	_, err := newTestDecoder(t).DecodeLines([]string{"1"}, layout.Flat())
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}

func TestDecodeCompressed_UnknownCompression(t *testing.T) {
	d := newTestDecoder(t)

	for _, err := range d.DecodeCompressed([]byte("x"), format.CompressionType(0), flatSet()) {
		require.Error(t, err)
	}
}

func TestDecoder_LogsLineFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := newTestDecoder(t, WithLogger(zap.New(core)))

	for range d.All(lines.FromStrings("xyz"), flatSet()) { //nolint:revive
	}

	failed := logs.FilterMessage("line decode failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, int64(1), failed[0].ContextMap()["line"])

	summary := logs.FilterMessage("batch decoded").All()
	require.Len(t, summary, 1)
	require.Equal(t, int64(1), summary[0].ContextMap()["failed"])
}

func BenchmarkDecodeRowWith(b *testing.B) {
	d, _ := NewDecoder()
	r, _ := d.Resolver(sectionedSet())

	b.ReportAllocs()
	for b.Loop() {
		_, _ = d.DecodeRowWith("1007ALICE     ", r)
	}
}
