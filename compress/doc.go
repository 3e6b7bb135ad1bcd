// Package compress provides the payload codecs used for compressed
// interchange files.
//
// A compressed interchange file is an ordinary newline-separated
// fixed-width batch compressed as a single payload. The codec is chosen by
// format.CompressionType:
//
//	None  passthrough
//	Zstd  best ratio, the usual choice for archived remittance files
//	S2    fast, good ratio on repetitive columns
//	LZ4   fastest decompression
//
// Fixed-width batches are dominated by space and zero padding, so every
// codec other than None typically shrinks them severalfold.
//
// Zstd is implemented with github.com/klauspost/compress by default. Building
// with the gozstd tag and cgo enabled switches to github.com/valyala/gozstd;
// both produce standard zstd frames and are interchangeable on the wire.
//
// # Usage
//
//	codec, err := compress.CreateCodec(format.CompressionZstd, "batch")
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress([]byte(batch))
//
// All codecs are stateless values and safe for concurrent use.
package compress
