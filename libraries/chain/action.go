package chain

import (
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

type PermissionLevel struct {
	Actor      Name `json:"actor"`
	Permission Name `json:"permission"`
}

type Action struct {
	Account       Name              `json:"account"`
	Name          Name              `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          Bytes             `json:"data"`
}

func (act *Action) Pack(w *encoding.Writer) {
	w.Uint64(uint64(act.Account))
	w.Uint64(uint64(act.Name))
	w.Varuint32(uint32(len(act.Authorization)))
	for _, auth := range act.Authorization {
		w.Uint64(uint64(auth.Actor))
		w.Uint64(uint64(auth.Permission))
	}
	w.Bytes(act.Data)
}

func (act *Action) Bytes() []byte {
	w := encoding.NewWriter()
	act.Pack(w)
	return w.Result()
}

func (act *Action) Digest() Checksum256 {
	return Sha256(act.Bytes())
}

type AuthSequence struct {
	Account  Name   `json:"account"`
	Sequence uint64 `json:"sequence"`
}

type ActionReceipt struct {
	Receiver       Name           `json:"receiver"`
	ActDigest      Checksum256    `json:"act_digest"`
	GlobalSequence uint64         `json:"global_sequence"`
	RecvSequence   uint64         `json:"recv_sequence"`
	AuthSequence   []AuthSequence `json:"auth_sequence"`
	CodeSequence   uint32         `json:"code_sequence"`
	AbiSequence    uint32         `json:"abi_sequence"`
}

func (r *ActionReceipt) Pack(w *encoding.Writer) {
	w.Uint64(uint64(r.Receiver))
	w.Raw(r.ActDigest[:])
	w.Uint64(r.GlobalSequence)
	w.Uint64(r.RecvSequence)
	w.Varuint32(uint32(len(r.AuthSequence)))
	for _, seq := range r.AuthSequence {
		w.Uint64(uint64(seq.Account))
		w.Uint64(seq.Sequence)
	}
	w.Varuint32(r.CodeSequence)
	w.Varuint32(r.AbiSequence)
}

func (r *ActionReceipt) Digest() Checksum256 {
	w := encoding.NewWriter()
	r.Pack(w)
	return Sha256(w.Result())
}

// IncrementalMerkle is the append-only merkle accumulator nodeos keeps for
// block ids. Active nodes are packed before the node count.
type IncrementalMerkle struct {
	NodeCount   uint64        `json:"node_count"`
	ActiveNodes []Checksum256 `json:"active_nodes"`
}

func (m *IncrementalMerkle) Pack(w *encoding.Writer) {
	PackChecksums(w, m.ActiveNodes)
	w.Uint64(m.NodeCount)
}

func PackChecksums(w *encoding.Writer, ids []Checksum256) {
	w.Varuint32(uint32(len(ids)))
	for i := range ids {
		w.Raw(ids[i][:])
	}
}
