package compress

import (
	"fmt"

	"github.com/agilebank/seqfile/format"
)

// Compressor compresses a whole payload.
//
// The returned slice is owned by the caller. The None codec returns its
// input unchanged, so callers must not modify data afterwards if they keep
// the result.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Corrupted input or input produced by another algorithm is reported as an
// error. An empty payload decompresses to nil.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// maxDecompressedSize bounds the output of a single Decompress call.
const maxDecompressedSize = 256 * 1024 * 1024

// CreateCodec returns the Codec for compressionType.
//
// Codecs are stateless values, so creating one per payload costs nothing.
//
// Parameters:
//   - compressionType: One of format.CompressionNone, Zstd, S2 or LZ4
//   - target: Names the payload in the error message ("batch", ...)
//
// Returns:
//   - Codec: The codec for the type
//   - error: An unknown compression type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

// Ratio returns compressed/original, or 0 for an empty original.
func Ratio(originalSize, compressedSize int) float64 {
	if originalSize == 0 {
		return 0
	}

	return float64(compressedSize) / float64(originalSize)
}
