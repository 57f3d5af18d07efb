package ffi

import (
	"fmt"
	"math"
	"unsafe"
)

// MaxElements bounds every foreign list and byte buffer.
const MaxElements = 1 << 20

// View is a borrowed window over count elements of T owned by the caller on
// the other side of the C boundary. It is never freed from this side.
type View[T any] struct {
	ptr unsafe.Pointer
	n   int
}

// NewView validates ptr and count once. A null pointer is always an error.
func NewView[T any](field string, ptr unsafe.Pointer, count uintptr) (View[T], error) {
	if ptr == nil {
		return View[T]{}, nullPointer(field)
	}
	if err := checkBounds[T](field, count); err != nil {
		return View[T]{}, err
	}
	return View[T]{ptr: ptr, n: int(count)}, nil
}

// listView is NewView except that (nil, 0) is the empty list.
func listView[T any](field string, ptr unsafe.Pointer, count uintptr) (View[T], error) {
	if ptr == nil && count == 0 {
		return View[T]{}, nil
	}
	return NewView[T](field, ptr, count)
}

func checkBounds[T any](field string, count uintptr) error {
	if count > MaxElements {
		return &DecodeError{Field: field, Kind: ErrTooLarge, Err: fmt.Errorf("%d elements exceeds %d", count, MaxElements)}
	}
	var zero T
	if size := unsafe.Sizeof(zero); size != 0 && uint64(count) > math.MaxUint64/uint64(size) {
		return &DecodeError{Field: field, Kind: ErrTooLarge, Err: fmt.Errorf("byte size overflows")}
	}
	return nil
}

func (v View[T]) Len() int {
	return v.n
}

// Borrow aliases the foreign memory. The slice must not outlive the call
// that produced the view.
func (v View[T]) Borrow() []T {
	if v.n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(v.ptr), v.n)
}

// Slice returns an owned copy.
func (v View[T]) Slice() []T {
	out := make([]T, v.n)
	copy(out, v.Borrow())
	return out
}
