// Package compression wraps zstd for pending-log values. Builds with cgo use
// the reference C library; pure Go builds use klauspost/compress.
package compression

const DefaultLevel = 3

func Compress(src []byte) ([]byte, error) {
	return CompressLevel(nil, src, DefaultLevel)
}
