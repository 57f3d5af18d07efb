package ffi

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// MaxCStringLen is how far DecodeCString scans for the terminator.
const MaxCStringLen = 64 << 10

func DecodeCString(field string, ptr unsafe.Pointer) (string, error) {
	if ptr == nil {
		return "", nullPointer(field)
	}
	n := 0
	for ; n < MaxCStringLen; n++ {
		if *(*byte)(unsafe.Add(ptr, n)) == 0 {
			break
		}
	}
	if n == MaxCStringLen {
		return "", &DecodeError{Field: field, Kind: ErrCStrConvert, Err: fmt.Errorf("no terminator within %d bytes", MaxCStringLen)}
	}
	b := unsafe.Slice((*byte)(ptr), n)
	if !utf8.Valid(b) {
		return "", &DecodeError{Field: field, Kind: ErrCStrConvert, Err: fmt.Errorf("invalid utf-8")}
	}
	return string(b), nil
}
