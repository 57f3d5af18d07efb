package encoding

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Writer produces the little-endian, varuint-length-prefixed binary form used
// by EOSIO ABI serialization.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Uint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) Varuint32(v uint32) {
	PutAsUVarint(&w.buf, uint64(v))
}

// Bytes writes a length-prefixed byte string.
func (w *Writer) Bytes(b []byte) {
	w.Varuint32(uint32(len(b)))
	w.buf.Write(b)
}

// Raw writes b without a length prefix, for fixed-size values.
func (w *Writer) Raw(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Result() []byte {
	return w.buf.Bytes()
}

func PutAsUVarint(buff *bytes.Buffer, item uint64) {
	var varbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varbuf[:], item)
	buff.Write(varbuf[:n])
}

var ErrShortBuffer = errors.New("encoding: short buffer")

// Reader is the inverse of Writer. It is used to inspect encoded calls.
type Reader struct {
	r *bytes.Reader
}

func NewReader(b []byte) *Reader {
	return &Reader{r: bytes.NewReader(b)}
}

func (r *Reader) fixed(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, ErrShortBuffer
	}
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, ErrShortBuffer
	}
	return b, nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Varuint32() (uint32, error) {
	v, err := binary.ReadUvarint(r.r)
	if err != nil || v > 0xffffffff {
		return 0, ErrShortBuffer
	}
	return uint32(v), nil
}

func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Varuint32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.r.Len() {
		return nil, ErrShortBuffer
	}
	return r.fixed(int(n))
}

func (r *Reader) Raw(n int) ([]byte, error) {
	return r.fixed(n)
}

func (r *Reader) Remaining() int {
	return r.r.Len()
}
