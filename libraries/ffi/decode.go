package ffi

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
)

func index(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

// DecodeBytes copies a foreign byte buffer. {nil, 0} is the empty buffer.
func DecodeBytes(field string, b *Bytes) ([]byte, error) {
	if b == nil {
		return nil, nullPointer(field)
	}
	v, err := listView[byte](field, b.Data, b.Size)
	if err != nil {
		return nil, err
	}
	return v.Slice(), nil
}

// DecodeChecksum256 requires exactly 32 bytes. The length is checked before
// the buffer is read.
func DecodeChecksum256(field string, b *Bytes) (chain.Checksum256, error) {
	var out chain.Checksum256
	if b == nil {
		return out, nullPointer(field)
	}
	if b.Size != uintptr(len(out)) {
		return out, wrongLength(field, len(out), int(min(b.Size, uintptr(MaxElements)+1)))
	}
	v, err := NewView[byte](field, b.Data, b.Size)
	if err != nil {
		return out, err
	}
	copy(out[:], v.Borrow())
	return out, nil
}

func decodeChecksums(field string, ptr unsafe.Pointer, count uintptr) ([]chain.Checksum256, error) {
	v, err := listView[Checksum256](field, ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]chain.Checksum256, v.Len())
	for i, c := range v.Borrow() {
		out[i] = chain.Checksum256(c.Hash)
	}
	return out, nil
}

func DecodeChecksumList(field string, l *ChecksumList) ([]chain.Checksum256, error) {
	if l == nil {
		return nil, nullPointer(field)
	}
	return decodeChecksums(field, l.IDs, l.IDsSize)
}

func DecodeChecksumLists(field string, ptr unsafe.Pointer, count uintptr) ([][]chain.Checksum256, error) {
	v, err := listView[ChecksumList](field, ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([][]chain.Checksum256, v.Len())
	for i := range v.Borrow() {
		l := &v.Borrow()[i]
		if out[i], err = decodeChecksums(index(field, i), l.IDs, l.IDsSize); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func DecodeAction(field string, a *Action) (chain.Action, error) {
	if a == nil {
		return chain.Action{}, nullPointer(field)
	}
	auths, err := listView[PermissionLevel](field+".authorization", a.Authorization, a.AuthorizationSize)
	if err != nil {
		return chain.Action{}, err
	}
	data, err := DecodeBytes(field+".data", &a.Data)
	if err != nil {
		return chain.Action{}, err
	}

	act := chain.Action{
		Account:       chain.Name(a.Account),
		Name:          chain.Name(a.Name),
		Authorization: make([]chain.PermissionLevel, auths.Len()),
		Data:          data,
	}
	for i, p := range auths.Borrow() {
		act.Authorization[i] = chain.PermissionLevel{Actor: chain.Name(p.Actor), Permission: chain.Name(p.Permission)}
	}
	return act, nil
}

// DecodeActionReceipt returns the auth sequence sorted by account. Two
// entries for the same account are rejected.
func DecodeActionReceipt(field string, r *ActionReceipt) (chain.ActionReceipt, error) {
	if r == nil {
		return chain.ActionReceipt{}, nullPointer(field)
	}
	digest, err := DecodeChecksum256(field+".act_digest", &r.ActDigest)
	if err != nil {
		return chain.ActionReceipt{}, err
	}
	seqField := field + ".auth_sequence"
	seqs, err := listView[AuthSequence](seqField, r.AuthSequence, r.AuthSequenceSize)
	if err != nil {
		return chain.ActionReceipt{}, err
	}

	auth := make([]chain.AuthSequence, seqs.Len())
	for i, s := range seqs.Borrow() {
		auth[i] = chain.AuthSequence{Account: chain.Name(s.Account), Sequence: s.Sequence}
	}
	sort.SliceStable(auth, func(i, j int) bool { return auth[i].Account < auth[j].Account })
	for i := 1; i < len(auth); i++ {
		if auth[i].Account == auth[i-1].Account {
			return chain.ActionReceipt{}, &DecodeError{Field: seqField, Kind: ErrDuplicateKey, Err: fmt.Errorf("account %s", auth[i].Account)}
		}
	}

	return chain.ActionReceipt{
		Receiver:       chain.Name(r.Receiver),
		ActDigest:      digest,
		GlobalSequence: r.GlobalSequence,
		RecvSequence:   r.RecvSequence,
		AuthSequence:   auth,
		CodeSequence:   r.CodeSequence,
		AbiSequence:    r.AbiSequence,
	}, nil
}

func DecodeIncrementalMerkle(field string, m *IncrementalMerkle) (chain.IncrementalMerkle, error) {
	if m == nil {
		return chain.IncrementalMerkle{}, nullPointer(field)
	}
	nodes, err := decodeChecksums(field+".active_nodes", m.ActiveNodes, m.ActiveNodesSize)
	if err != nil {
		return chain.IncrementalMerkle{}, err
	}
	return chain.IncrementalMerkle{NodeCount: m.NodeCount, ActiveNodes: nodes}, nil
}

func DecodeProducerSchedule(field string, s *ProducerSchedule) (chain.ProducerSchedule, error) {
	if s == nil {
		return chain.ProducerSchedule{}, nullPointer(field)
	}
	field += ".producers"
	v, err := listView[ProducerKey](field, s.Producers, s.ProducersSize)
	if err != nil {
		return chain.ProducerSchedule{}, err
	}
	out := chain.ProducerSchedule{Version: s.Version, Producers: make([]chain.ProducerKey, v.Len())}
	for i, p := range v.Borrow() {
		key, err := DecodePublicKey(index(field, i)+".block_signing_key", p.BlockSigningKey)
		if err != nil {
			return chain.ProducerSchedule{}, err
		}
		out.Producers[i] = chain.ProducerKey{ProducerName: chain.Name(p.ProducerName), BlockSigningKey: key}
	}
	return out, nil
}

func DecodeProducerAuthoritySchedule(field string, s *ProducerAuthoritySchedule) (chain.ProducerAuthoritySchedule, error) {
	if s == nil {
		return chain.ProducerAuthoritySchedule{}, nullPointer(field)
	}
	field += ".producers"
	v, err := listView[ProducerAuthority](field, s.Producers, s.ProducersSize)
	if err != nil {
		return chain.ProducerAuthoritySchedule{}, err
	}
	out := chain.ProducerAuthoritySchedule{Version: s.Version, Producers: make([]chain.ProducerAuthority, v.Len())}
	for i, p := range v.Borrow() {
		pf := index(field, i) + ".keys"
		keys, err := listView[KeyWeight](pf, p.Keys, p.KeysSize)
		if err != nil {
			return chain.ProducerAuthoritySchedule{}, err
		}
		auth := chain.BlockSigningAuthority{Threshold: p.Threshold, Keys: make([]chain.KeyWeight, keys.Len())}
		for j, kw := range keys.Borrow() {
			key, err := DecodePublicKey(index(pf, j)+".key", kw.Key)
			if err != nil {
				return chain.ProducerAuthoritySchedule{}, err
			}
			auth.Keys[j] = chain.KeyWeight{Key: key, Weight: kw.Weight}
		}
		out.Producers[i] = chain.ProducerAuthority{ProducerName: chain.Name(p.ProducerName), Authority: auth}
	}
	return out, nil
}

func DecodeSignedBlockHeader(field string, h *SignedBlockHeader) (chain.SignedBlockHeader, error) {
	if h == nil {
		return chain.SignedBlockHeader{}, nullPointer(field)
	}
	out := chain.SignedBlockHeader{
		BlockHeader: chain.BlockHeader{
			Timestamp:        chain.BlockTimestamp(h.Timestamp),
			Producer:         chain.Name(h.Producer),
			Confirmed:        h.Confirmed,
			Previous:         chain.Checksum256(h.Previous.Hash),
			TransactionMroot: chain.Checksum256(h.TransactionMroot.Hash),
			ActionMroot:      chain.Checksum256(h.ActionMroot.Hash),
			ScheduleVersion:  h.ScheduleVersion,
		},
	}
	if h.NewProducers != nil {
		sched, err := DecodeProducerSchedule(field+".new_producers", (*ProducerSchedule)(h.NewProducers))
		if err != nil {
			return chain.SignedBlockHeader{}, err
		}
		out.NewProducers = &sched
	}

	extField := field + ".header_extensions"
	exts, err := listView[Extension](extField, h.HeaderExtensions, h.HeaderExtensionsSize)
	if err != nil {
		return chain.SignedBlockHeader{}, err
	}
	out.HeaderExtensions = make([]chain.Extension, exts.Len())
	for i := range exts.Borrow() {
		e := &exts.Borrow()[i]
		data, err := DecodeBytes(index(extField, i)+".data", &e.Data)
		if err != nil {
			return chain.SignedBlockHeader{}, err
		}
		out.HeaderExtensions[i] = chain.Extension{Type: e.Type, Data: data}
	}

	if out.ProducerSignature, err = DecodeSignature(field+".producer_signature", h.ProducerSignature); err != nil {
		return chain.SignedBlockHeader{}, err
	}
	return out, nil
}

func DecodeSignedBlockHeaders(field string, ptr unsafe.Pointer, count uintptr) ([]chain.SignedBlockHeader, error) {
	v, err := listView[SignedBlockHeader](field, ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]chain.SignedBlockHeader, v.Len())
	for i := range v.Borrow() {
		if out[i], err = DecodeSignedBlockHeader(index(field, i), &v.Borrow()[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
