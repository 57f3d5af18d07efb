package ffi

import (
	"unsafe"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
)

func DecodePublicKey(field string, ptr unsafe.Pointer) (chain.PublicKey, error) {
	s, err := DecodeCString(field, ptr)
	if err != nil {
		return chain.PublicKey{}, err
	}
	key, err := chain.ParsePublicKey(s)
	if err != nil {
		return chain.PublicKey{}, &DecodeError{Field: field, Kind: ErrPublicKey, Err: err}
	}
	return key, nil
}

func DecodeSignature(field string, ptr unsafe.Pointer) (chain.Signature, error) {
	s, err := DecodeCString(field, ptr)
	if err != nil {
		return chain.Signature{}, err
	}
	sig, err := chain.ParseSignature(s)
	if err != nil {
		return chain.Signature{}, &DecodeError{Field: field, Kind: ErrSignature, Err: err}
	}
	return sig, nil
}
