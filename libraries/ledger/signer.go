package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
	"lukechampine.com/blake3"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

const extrinsicVersion = 0x84

type Signer struct {
	priv     ed25519.PrivateKey
	pub      ed25519.PublicKey
	identity string
}

// NewSigner derives a keypair from seed. "0x" followed by 64 hex characters
// is a raw 32-byte seed; "//Name" is a development account whose seed is the
// blake3 hash of the whole string.
func NewSigner(seed string) (*Signer, error) {
	var raw [ed25519.SeedSize]byte
	switch {
	case strings.HasPrefix(seed, "//") && len(seed) > 2:
		raw = blake3.Sum256([]byte(seed))
	case strings.HasPrefix(seed, "0x") && len(seed) == 2+2*ed25519.SeedSize:
		if _, err := hex.Decode(raw[:], []byte(seed[2:])); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrongSigningSeed, err)
		}
	default:
		return nil, ErrWrongSigningSeed
	}
	priv := ed25519.NewKeyFromSeed(raw[:])
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{priv: priv, pub: pub, identity: "0x" + hex.EncodeToString(pub)}, nil
}

// Identity is the account the ledger tracks the nonce for.
func (s *Signer) Identity() string {
	return s.identity
}

func (s *Signer) PublicKey() []byte {
	return append([]byte(nil), s.pub...)
}

func (s *Signer) Sign(payload []byte) []byte {
	return ed25519.Sign(s.priv, payload)
}

func Verify(pub, payload, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}

func signingPayload(call []byte, nonce uint64) []byte {
	w := encoding.NewWriter()
	w.Raw(call)
	w.Uint64(nonce)
	return w.Result()
}

// Extrinsic wraps an encoded call with the signer, its signature and the
// nonce into the envelope accepted by author_submitExtrinsic.
func Extrinsic(call Call, signer *Signer, nonce uint64) []byte {
	body := call.Encode()
	w := encoding.NewWriter()
	w.Uint8(extrinsicVersion)
	w.Raw(signer.pub)
	w.Raw(signer.Sign(signingPayload(body, nonce)))
	w.Uint64(nonce)
	w.Raw(body)
	return w.Result()
}

// OpenExtrinsic is the inverse of Extrinsic and checks the signature.
func OpenExtrinsic(b []byte) (identity string, nonce uint64, call Call, err error) {
	r := encoding.NewReader(b)
	version, err := r.Uint8()
	if err != nil || version != extrinsicVersion {
		return "", 0, Call{}, fmt.Errorf("bad extrinsic version")
	}
	pub, err := r.Raw(ed25519.PublicKeySize)
	if err != nil {
		return "", 0, Call{}, err
	}
	sig, err := r.Raw(ed25519.SignatureSize)
	if err != nil {
		return "", 0, Call{}, err
	}
	if nonce, err = r.Uint64(); err != nil {
		return "", 0, Call{}, err
	}
	body, _ := r.Raw(r.Remaining())
	if !Verify(pub, signingPayload(body, nonce), sig) {
		return "", 0, Call{}, fmt.Errorf("bad extrinsic signature")
	}

	br := encoding.NewReader(body)
	module, err := br.Bytes()
	if err != nil {
		return "", 0, Call{}, err
	}
	function, err := br.Bytes()
	if err != nil {
		return "", 0, Call{}, err
	}
	args, err := br.Bytes()
	if err != nil {
		return "", 0, Call{}, err
	}
	return "0x" + hex.EncodeToString(pub), nonce, Call{Module: string(module), Function: string(function), Args: args}, nil
}
