package compress

// ZstdCompressor implements Zstandard frame compression. The backing
// library is selected at build time, see the package documentation.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
