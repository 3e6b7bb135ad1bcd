package layout

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agilebank/seqfile/errs"
	"github.com/agilebank/seqfile/field"
	"github.com/agilebank/seqfile/internal/collision"
	"github.com/agilebank/seqfile/internal/hash"
	"github.com/agilebank/seqfile/internal/options"
)

// SectionError reports a line that matches no group of a sectioned set.
type SectionError struct {
	Line string
}

func (e *SectionError) Error() string {
	line := e.Line
	if runes := []rune(line); len(runes) > 40 {
		line = string(runes[:40]) + "..."
	}

	return fmt.Sprintf("%s: line %q", errs.ErrUnrecognizedSection, line)
}

func (e *SectionError) Unwrap() error {
	return errs.ErrUnrecognizedSection
}

// Resolver picks the field list of a Set for each line.
//
// When every group of a sectioned set shares the same discriminator column
// and type, the resolver decodes the discriminator once per line and looks
// the group up by the xxHash64 of its canonical value. Otherwise, or if two
// declared keys share a hash, it scans the groups in order.
//
// The index is a lookup optimisation only: both paths pick the first group
// whose declared key equals the decoded discriminator, and a hash hit is
// confirmed against the canonical key before it is used.
//
// A Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	set    Set
	codec  *field.Codec
	logger *zap.Logger

	keys  []string       // canonical key per group
	discr Field          // shared discriminator field, valid when index != nil
	index map[uint64]int // key hash → first group declaring the key
}

// ResolverOption configures a Resolver.
type ResolverOption = options.Option[*Resolver]

// WithLogger sets the logger used to report how a set was compiled.
func WithLogger(l *zap.Logger) ResolverOption {
	return options.NoError(func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	})
}

// NewResolver validates and compiles set.
//
// Parameters:
//   - set: Flat or sectioned layout
//   - codec: Decodes discriminators and declared keys; nil uses field defaults
//   - opts: WithLogger
//
// Returns:
//   - *Resolver: The compiled resolver
//   - error: errs.ErrInvalidLayout for an invalid set or a declared key that
//     does not parse as its discriminator type
func NewResolver(set Set, codec *field.Codec, opts ...ResolverOption) (*Resolver, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	if codec == nil {
		var err error
		if codec, err = field.NewCodec(); err != nil {
			return nil, err
		}
	}

	r := &Resolver{
		set:    set,
		codec:  codec,
		logger: zap.NewNop(),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	if set.Kind() == KindSectioned {
		if err := r.compile(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Resolver) compile() error {
	groups := r.set.Groups()
	r.keys = make([]string, len(groups))

	uniform := true
	first := groups[0].Discriminator()
	for i, g := range groups {
		d := g.Discriminator()
		key, err := r.codec.CanonicalKey(d.Type, g.Key)
		if err != nil {
			return fmt.Errorf("%w: group %q key: %w", errs.ErrInvalidLayout, g.Key, err)
		}
		r.keys[i] = key

		if d.Offset != first.Offset || d.Length != first.Length || d.Type != first.Type {
			uniform = false
		}
	}

	if !uniform {
		r.logger.Debug("layout resolver using ordered scan",
			zap.Int("groups", len(groups)),
			zap.String("reason", "discriminator columns differ"))

		return nil
	}

	tracker := collision.NewTracker()
	index := make(map[uint64]int, len(groups))
	for i, key := range r.keys {
		h := hash.Key(key)
		if tracker.Track(key, h) {
			index[h] = i
		}
	}

	if tracker.HasCollision() {
		r.logger.Debug("layout resolver using ordered scan",
			zap.Int("groups", len(groups)),
			zap.String("reason", "discriminator hash collision"))

		return nil
	}

	r.discr = first
	r.index = index

	r.logger.Debug("layout resolver indexed",
		zap.Int("groups", len(groups)),
		zap.Int("keys", tracker.Count()),
		zap.Strings("sections", tracker.Keys()))

	return nil
}

// Set returns the compiled set.
func (r *Resolver) Set() Set {
	return r.set
}

// Codec returns the codec used to decode discriminators.
func (r *Resolver) Codec() *field.Codec {
	return r.codec
}

// Indexed reports whether sections are looked up by hash.
func (r *Resolver) Indexed() bool {
	return r.index != nil
}

// Resolve returns the field list applying to line.
func (r *Resolver) Resolve(line string) ([]Field, error) {
	if r.set.Kind() == KindFlat {
		return r.set.Fields(), nil
	}

	return r.ResolveRunes([]rune(line))
}

// ResolveRunes is Resolve for a line already split into runes.
func (r *Resolver) ResolveRunes(line []rune) ([]Field, error) {
	if r.set.Kind() == KindFlat {
		return r.set.Fields(), nil
	}

	groups := r.set.Groups()

	if r.index != nil {
		key, ok := r.discriminatorKey(r.discr, line)
		if ok {
			if i, found := r.index[hash.Key(key)]; found && r.keys[i] == key {
				return groups[i].Fields, nil
			}
		}

		return nil, &SectionError{Line: string(line)}
	}

	for i, g := range groups {
		key, ok := r.discriminatorKey(g.Discriminator(), line)
		if ok && key == r.keys[i] {
			return g.Fields, nil
		}
	}

	return nil, &SectionError{Line: string(line)}
}

// discriminatorKey decodes f from line; a value that does not decode is
// reported as no match.
func (r *Resolver) discriminatorKey(f Field, line []rune) (string, bool) {
	v, err := r.codec.Parse(f.Type, f.Slice(line))
	if err != nil {
		return "", false
	}

	key, err := field.Canonical(f.Type, v)
	if err != nil {
		return "", false
	}

	return key, true
}

// Resolve compiles set and resolves a single line. Use a Resolver to decode
// many lines against the same set.
func Resolve(set Set, line string, codec *field.Codec) ([]Field, error) {
	r, err := NewResolver(set, codec)
	if err != nil {
		return nil, err
	}

	return r.Resolve(line)
}
