package encoding

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Uint8(7)
	w.Bool(true)
	w.Uint16(0xbeef)
	w.Uint32(math.MaxUint32)
	w.Uint64(math.MaxUint64)
	w.Varuint32(300)
	w.Bytes([]byte("bridge"))
	w.Raw([]byte{1, 2, 3})

	r := NewReader(w.Result())
	if v, _ := r.Uint8(); v != 7 {
		t.Errorf("Uint8 = %d", v)
	}
	if v, _ := r.Uint8(); v != 1 {
		t.Errorf("Bool = %d", v)
	}
	if v, _ := r.Uint16(); v != 0xbeef {
		t.Errorf("Uint16 = %x", v)
	}
	if v, _ := r.Uint32(); v != math.MaxUint32 {
		t.Errorf("Uint32 = %d", v)
	}
	if v, _ := r.Uint64(); v != math.MaxUint64 {
		t.Errorf("Uint64 = %d", v)
	}
	if v, _ := r.Varuint32(); v != 300 {
		t.Errorf("Varuint32 = %d", v)
	}
	if v, _ := r.Bytes(); string(v) != "bridge" {
		t.Errorf("Bytes = %q", v)
	}
	if v, _ := r.Raw(3); !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Errorf("Raw = %v", v)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d", r.Remaining())
	}
}

func TestVaruint32Encoding(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, tt := range tests {
		w := NewWriter()
		w.Varuint32(tt.in)
		if !bytes.Equal(w.Result(), tt.want) {
			t.Errorf("Varuint32(%d) = %x, want %x", tt.in, w.Result(), tt.want)
		}
	}
}

func TestReaderShortBuffer(t *testing.T) {
	if _, err := NewReader([]byte{1, 2}).Uint32(); err != ErrShortBuffer {
		t.Errorf("Uint32 err = %v", err)
	}
	// declared length larger than what is left
	if _, err := NewReader([]byte{0x05, 'a'}).Bytes(); err != ErrShortBuffer {
		t.Errorf("Bytes err = %v", err)
	}
}

func TestMaybeGetUint64(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  uint64
		ok    bool
	}{
		{"json.Number", json.Number("42"), 42, true},
		{"json.Number negative", json.Number("-1"), 0, false},
		{"json.Number float", json.Number("1.5"), 0, false},
		{"decimal string", "12345", 12345, true},
		{"hex string", "0x1f", 31, true},
		{"bad string", "nonce", 0, false},
		{"uint64", uint64(9), 9, true},
		{"int64", int64(3), 3, true},
		{"negative int64", int64(-3), 0, false},
		{"float64", 1.0, 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MaybeGetUint64(tt.input)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("MaybeGetUint64(%v) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestJSONiterUseNumber(t *testing.T) {
	var result map[string]interface{}
	if err := JSONiter.Unmarshal([]byte(`{"value": 12345678901234567890}`), &result); err != nil {
		t.Fatal(err)
	}
	num, ok := result["value"].(json.Number)
	if !ok || string(num) != "12345678901234567890" {
		t.Errorf("value = %#v", result["value"])
	}
}
