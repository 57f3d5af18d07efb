package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Checksum256 [32]byte

func Sha256(b []byte) Checksum256 {
	return Checksum256(sha256.Sum256(b))
}

func (c Checksum256) String() string {
	return hex.EncodeToString(c[:])
}

func (c Checksum256) IsZero() bool {
	return c == Checksum256{}
}

func (c Checksum256) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Checksum256) UnmarshalText(text []byte) error {
	if len(text) != 64 {
		return fmt.Errorf("checksum256: want 64 hex characters, got %d", len(text))
	}
	_, err := hex.Decode(c[:], text)
	return err
}

// Bytes is an opaque byte string, hex encoded in JSON.
type Bytes []byte

func (b Bytes) String() string {
	return hex.EncodeToString(b)
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *Bytes) UnmarshalText(text []byte) error {
	out, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	*b = out
	return nil
}
