package layout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/format"
)

func numberedGroups() Set {
	return Sectioned(
		Group{Key: "1", Fields: []Field{
			{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber},
			{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
		}},
		Group{Key: "2", Fields: []Field{
			{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber},
			{Name: "amount", Offset: 4, Length: 5, Type: format.TypeFloat},
			{Name: "memo", Offset: 9, Length: 3, Type: format.TypeText},
		}},
	)
}

func TestResolver_Flat(t *testing.T) {
	fields := []Field{
		{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
		{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
	}
	r, err := NewResolver(Flat(fields...), nil)
	require.NoError(t, err)
	require.False(t, r.Indexed())

	got, err := r.Resolve("anything at all")
	require.NoError(t, err)
	require.Equal(t, fields, got)
}

func TestResolver_PicksMatchingSection(t *testing.T) {
	set := numberedGroups()
	r, err := NewResolver(set, nil)
	require.NoError(t, err)
	require.True(t, r.Indexed())

	got, err := r.Resolve("00121041989")
	require.NoError(t, err)
	require.Equal(t, set.Groups()[0].Fields, got)

	// group 1 is listed first and its widths fit this line too
	got, err = r.Resolve("00200199ABC")
	require.NoError(t, err)
	require.Equal(t, set.Groups()[1].Fields, got)
}

func TestResolver_UnrecognizedSection(t *testing.T) {
	r, err := NewResolver(numberedGroups(), nil)
	require.NoError(t, err)

	for _, line := range []string{"00321041989", "XYZ21041989", ""} {
		_, err = r.Resolve(line)
		require.ErrorIs(t, err, errs.ErrUnrecognizedSection)

		var se *SectionError
		require.True(t, errors.As(err, &se))
		require.Equal(t, line, se.Line)
	}
}

func TestResolver_MixedDiscriminatorTypes(t *testing.T) {
	set := Sectioned(
		Group{Key: "1", Fields: []Field{
			{Name: "id", Offset: 1, Length: 3, Type: format.TypeNumber},
			{Name: "date", Offset: 4, Length: 8, Type: format.TypeDate},
		}},
		Group{Key: "2", Fields: []Field{
			{Name: "id", Offset: 1, Length: 3, Type: format.TypeText},
			{Name: "date", Offset: 4, Length: 8, Type: format.TypeNumber},
		}},
	)
	r, err := NewResolver(set, nil)
	require.NoError(t, err)
	require.False(t, r.Indexed())

	got, err := r.Resolve("00121041989")
	require.NoError(t, err)
	require.Equal(t, set.Groups()[0].Fields, got)

	// text "2" matches only the text discriminator, never a numeric one
	got, err = r.Resolve("2  21041989")
	require.NoError(t, err)
	require.Equal(t, set.Groups()[1].Fields, got)

	_, err = r.Resolve("00221041989")
	require.ErrorIs(t, err, errs.ErrUnrecognizedSection)
}

func TestResolver_TextSections(t *testing.T) {
	set := Sectioned(
		Group{Key: "HDR", Fields: []Field{{Name: "rec", Offset: 1, Length: 3, Type: format.TypeText}, {Name: "bank", Offset: 4, Length: 3, Type: format.TypeNumber}}},
		Group{Key: "DET", Fields: []Field{{Name: "rec", Offset: 1, Length: 3, Type: format.TypeText}, {Name: "amount", Offset: 4, Length: 6, Type: format.TypeFloat}}},
		Group{Key: "TRL", Fields: []Field{{Name: "rec", Offset: 1, Length: 3, Type: format.TypeText}, {Name: "count", Offset: 4, Length: 4, Type: format.TypeNumber}}},
	)
	r, err := NewResolver(set, nil)
	require.NoError(t, err)

	for i, line := range []string{"HDR341", "DET001999", "TRL0002"} {
		got, err := r.Resolve(line)
		require.NoError(t, err)
		require.Equal(t, set.Groups()[i].Fields, got)
	}

	_, err = r.Resolve("hdr341")
	require.ErrorIs(t, err, errs.ErrUnrecognizedSection)
}

func TestResolver_DuplicateKeyFirstWins(t *testing.T) {
	first := []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber}, {Name: "a", Offset: 2, Length: 1, Type: format.TypeText}}
	second := []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber}, {Name: "b", Offset: 2, Length: 1, Type: format.TypeText}}
	r, err := NewResolver(Sectioned(Group{Key: "1", Fields: first}, Group{Key: "01", Fields: second}), nil)
	require.NoError(t, err)

	got, err := r.Resolve("1x")
	require.NoError(t, err)
	require.Equal(t, first, got)
}

func TestResolver_IndexMatchesOrderedScan(t *testing.T) {
	var indexed, scanned []Group
	for i := 1; i <= 20; i++ {
		fields := []Field{
			{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber},
			{Name: fmt.Sprintf("f%d", i), Offset: 4, Length: 2, Type: format.TypeText},
		}
		indexed = append(indexed, Group{Key: fmt.Sprint(i), Fields: fields})
		scanned = append(scanned, Group{Key: fmt.Sprint(i), Fields: fields})
	}
	// a trailing group with a different discriminator column disables the index
	scanned = append(scanned, Group{Key: "77", Fields: []Field{{Name: "type", Offset: 2, Length: 2, Type: format.TypeNumber}}})

	ri, err := NewResolver(Sectioned(indexed...), nil)
	require.NoError(t, err)
	require.True(t, ri.Indexed())

	rp, err := NewResolver(Sectioned(scanned...), nil)
	require.NoError(t, err)
	require.False(t, rp.Indexed())

	for i := 1; i <= 25; i++ {
		line := fmt.Sprintf("%03dzz", i)
		a, errA := ri.Resolve(line)
		b, errB := rp.Resolve(line)
		if i <= 20 {
			require.NoError(t, errA)
			require.NoError(t, errB)
			require.Equal(t, a, b, "line %q", line)
		} else {
			require.ErrorIs(t, errA, errs.ErrUnrecognizedSection)
			require.ErrorIs(t, errB, errs.ErrUnrecognizedSection)
		}
	}
}

func TestResolver_DateDiscriminatorUsesCodecPattern(t *testing.T) {
	codec, err := field.NewCodec(field.WithDatePattern("YYMMDD"))
	require.NoError(t, err)

	set := Sectioned(
		Group{Key: "890421", Fields: []Field{{Name: "d", Offset: 1, Length: 6, Type: format.TypeDate}}},
		Group{Key: "160201", Fields: []Field{{Name: "d", Offset: 1, Length: 6, Type: format.TypeDate}, {Name: "x", Offset: 7, Length: 1, Type: format.TypeText}}},
	)
	r, err := NewResolver(set, codec)
	require.NoError(t, err)
	require.Same(t, codec, r.Codec())

	got, err := r.Resolve("160201Z")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestResolver_InvalidKey(t *testing.T) {
	set := Sectioned(Group{Key: "one", Fields: []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber}}})
	_, err := NewResolver(set, nil)
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
	require.ErrorIs(t, err, errs.ErrMalformedNumeric)
}

func TestResolver_InvalidSet(t *testing.T) {
	_, err := NewResolver(Set{}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}

func TestResolver_LogsOrderedScan(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	set := Sectioned(
		Group{Key: "1", Fields: []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber}}},
		Group{Key: "A", Fields: []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeText}}},
	)

	_, err := NewResolver(set, nil, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("layout resolver using ordered scan").Len())
}

func TestResolver_LogsIndex(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	set := Sectioned(
		Group{Key: "1", Fields: []Field{{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber}}},
		Group{Key: "002", Fields: []Field{{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber}}},
		Group{Key: "01", Fields: []Field{{Name: "type", Offset: 1, Length: 3, Type: format.TypeNumber}}},
	)

	r, err := NewResolver(set, nil, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.True(t, r.Indexed())

	entries := logs.FilterMessage("layout resolver indexed").All()
	require.Len(t, entries, 1)
	require.Equal(t, int64(2), entries[0].ContextMap()["keys"])
	require.Equal(t, []any{"1", "2"}, entries[0].ContextMap()["sections"])
}

func TestResolve_OneShot(t *testing.T) {
	got, err := Resolve(numberedGroups(), "00200199ABC", nil)
	require.NoError(t, err)
	require.Equal(t, "amount", got[1].Name)

	_, err = Resolve(numberedGroups(), "00900199ABC", nil)
	require.ErrorIs(t, err, errs.ErrUnrecognizedSection)
}

func TestSectionError_TruncatesLongLines(t *testing.T) {
	e := &SectionError{Line: "0123456789012345678901234567890123456789OVERFLOW"}
	require.Contains(t, e.Error(), "...")
	require.NotContains(t, e.Error(), "OVERFLOW")
	require.ErrorIs(t, e, errs.ErrUnrecognizedSection)
}

func BenchmarkResolver_Indexed(b *testing.B) {
	var groups []Group
	for i := 0; i < 10; i++ {
		groups = append(groups, Group{Key: fmt.Sprint(i), Fields: []Field{{Name: "type", Offset: 1, Length: 1, Type: format.TypeNumber}}})
	}
	r, _ := NewResolver(Sectioned(groups...), nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Resolve("9 some detail record")
	}
}
