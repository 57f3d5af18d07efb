package chain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	eosbase58 "github.com/greymass/go-eosio/pkg/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

type KeyType uint8

const (
	KeyTypeK1 KeyType = 0
	KeyTypeR1 KeyType = 1
	KeyTypeWA KeyType = 2
)

const (
	publicKeyDataLen = 33
	signatureDataLen = 65
	checksumLen      = 4
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature")
)

func (kt KeyType) String() string {
	switch kt {
	case KeyTypeK1:
		return "K1"
	case KeyTypeR1:
		return "R1"
	case KeyTypeWA:
		return "WA"
	}
	return fmt.Sprintf("KeyType(%d)", uint8(kt))
}

func keyTypeFromSuffix(s string) (KeyType, bool) {
	switch s {
	case "K1":
		return KeyTypeK1, true
	case "R1":
		return KeyTypeR1, true
	case "WA":
		return KeyTypeWA, true
	}
	return 0, false
}

func ripemdChecksum(data []byte, suffix string) []byte {
	h := ripemd160.New()
	h.Write(data)
	h.Write([]byte(suffix))
	return h.Sum(nil)[:checksumLen]
}

// decodeChecked base58-decodes s and verifies the trailing ripemd160 checksum
// computed over data||suffix.
func decodeChecked(s, suffix string) ([]byte, error) {
	raw := base58.Decode(s)
	if len(raw) <= checksumLen {
		return nil, errors.New("base58 payload too short")
	}
	data, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(sum, ripemdChecksum(data, suffix)) {
		return nil, errors.New("checksum mismatch")
	}
	return data, nil
}

type PublicKey struct {
	Type KeyType
	Data []byte
}

// ParsePublicKey accepts the legacy EOS form and the PUB_<type>_ forms.
func ParsePublicKey(s string) (PublicKey, error) {
	var (
		kt   KeyType
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(s, "PUB_"):
		rest := s[len("PUB_"):]
		suffix, body, ok := strings.Cut(rest, "_")
		if !ok {
			return PublicKey{}, fmt.Errorf("%w: missing key type", ErrInvalidPublicKey)
		}
		if kt, ok = keyTypeFromSuffix(suffix); !ok {
			return PublicKey{}, fmt.Errorf("%w: unknown key type %q", ErrInvalidPublicKey, suffix)
		}
		data, err = decodeChecked(body, suffix)
	case strings.HasPrefix(s, "EOS"):
		kt = KeyTypeK1
		data, err = decodeChecked(s[len("EOS"):], "")
	default:
		return PublicKey{}, fmt.Errorf("%w: unrecognized prefix", ErrInvalidPublicKey)
	}
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if kt != KeyTypeWA && len(data) != publicKeyDataLen {
		return PublicKey{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPublicKey, publicKeyDataLen, len(data))
	}
	if kt == KeyTypeWA && len(data) < publicKeyDataLen {
		return PublicKey{}, fmt.Errorf("%w: webauthn key too short", ErrInvalidPublicKey)
	}
	return PublicKey{Type: kt, Data: data}, nil
}

func (k PublicKey) String() string {
	if len(k.Data) == 0 {
		return ""
	}
	suffix := k.Type.String()
	return "PUB_" + suffix + "_" + eosbase58.CheckEncodeEosio(k.Data, suffix)
}

// LegacyString renders a K1 key in the EOS-prefixed form.
func (k PublicKey) LegacyString() string {
	if k.Type != KeyTypeK1 {
		return k.String()
	}
	return "EOS" + base58.Encode(append(append([]byte{}, k.Data...), ripemdChecksum(k.Data, "")...))
}

func (k PublicKey) Pack(w *encoding.Writer) {
	w.Uint8(uint8(k.Type))
	w.Raw(k.Data)
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = PublicKey{}
		return nil
	}
	v, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

type Signature struct {
	Type KeyType
	Data []byte
}

func ParseSignature(s string) (Signature, error) {
	if !strings.HasPrefix(s, "SIG_") {
		return Signature{}, fmt.Errorf("%w: unrecognized prefix", ErrInvalidSignature)
	}
	suffix, body, ok := strings.Cut(s[len("SIG_"):], "_")
	if !ok {
		return Signature{}, fmt.Errorf("%w: missing key type", ErrInvalidSignature)
	}
	kt, ok := keyTypeFromSuffix(suffix)
	if !ok {
		return Signature{}, fmt.Errorf("%w: unknown key type %q", ErrInvalidSignature, suffix)
	}
	data, err := decodeChecked(body, suffix)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if kt != KeyTypeWA && len(data) != signatureDataLen {
		return Signature{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSignature, signatureDataLen, len(data))
	}
	return Signature{Type: kt, Data: data}, nil
}

func (s Signature) String() string {
	if len(s.Data) == 0 {
		return ""
	}
	suffix := s.Type.String()
	return "SIG_" + suffix + "_" + eosbase58.CheckEncodeEosio(s.Data, suffix)
}

func (s Signature) Pack(w *encoding.Writer) {
	w.Uint8(uint8(s.Type))
	w.Raw(s.Data)
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = Signature{}
		return nil
	}
	v, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
