//go:build cgo

package compression

import (
	"github.com/DataDog/zstd"
)

func CompressLevel(dst, src []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(dst, src, level)
}

func Decompress(dst, src []byte) ([]byte, error) {
	return zstd.Decompress(dst, src)
}
