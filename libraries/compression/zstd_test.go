package compression

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte(`{"kind":"action_proof","block_headers":[]}`), 50)

	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("compressed size %d >= original %d", len(compressed), len(original))
	}

	decompressed, err := Decompress(nil, compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(original, decompressed) {
		t.Fatal("round trip mismatch")
	}
}

func TestLevels(t *testing.T) {
	original := []byte("pending proof record")
	for _, level := range []int{1, 3, 9} {
		compressed, err := CompressLevel(nil, original, level)
		if err != nil {
			t.Fatalf("CompressLevel(%d): %v", level, err)
		}
		got, err := Decompress(nil, compressed)
		if err != nil || !bytes.Equal(got, original) {
			t.Errorf("level %d: got %q, %v", level, got, err)
		}
	}
}

func TestDecompressGarbage(t *testing.T) {
	if _, err := Decompress(nil, []byte("definitely not zstd")); err == nil {
		t.Error("expected error for garbage input")
	}
}
