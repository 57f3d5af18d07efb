package chain

import (
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

// ProducerKey is an entry of the legacy (pre-2.0) producer schedule.
type ProducerKey struct {
	ProducerName    Name      `json:"producer_name"`
	BlockSigningKey PublicKey `json:"block_signing_key"`
}

type ProducerSchedule struct {
	Version   uint32        `json:"version"`
	Producers []ProducerKey `json:"producers"`
}

func (s *ProducerSchedule) Pack(w *encoding.Writer) {
	w.Uint32(s.Version)
	w.Varuint32(uint32(len(s.Producers)))
	for i := range s.Producers {
		w.Uint64(uint64(s.Producers[i].ProducerName))
		s.Producers[i].BlockSigningKey.Pack(w)
	}
}

func (s *ProducerSchedule) Digest() Checksum256 {
	w := encoding.NewWriter()
	s.Pack(w)
	return Sha256(w.Result())
}

type KeyWeight struct {
	Key    PublicKey `json:"key"`
	Weight uint16    `json:"weight"`
}

type BlockSigningAuthority struct {
	Threshold uint32      `json:"threshold"`
	Keys      []KeyWeight `json:"keys"`
}

type ProducerAuthority struct {
	ProducerName Name                  `json:"producer_name"`
	Authority    BlockSigningAuthority `json:"authority"`
}

type ProducerAuthoritySchedule struct {
	Version   uint32              `json:"version"`
	Producers []ProducerAuthority `json:"producers"`
}

func (s *ProducerAuthoritySchedule) Pack(w *encoding.Writer) {
	w.Uint32(s.Version)
	w.Varuint32(uint32(len(s.Producers)))
	for i := range s.Producers {
		p := &s.Producers[i]
		w.Uint64(uint64(p.ProducerName))
		// block_signing_authority is a variant with a single v0 alternative
		w.Varuint32(0)
		w.Uint32(p.Authority.Threshold)
		w.Varuint32(uint32(len(p.Authority.Keys)))
		for j := range p.Authority.Keys {
			p.Authority.Keys[j].Key.Pack(w)
			w.Uint16(p.Authority.Keys[j].Weight)
		}
	}
}

func (s *ProducerAuthoritySchedule) Digest() Checksum256 {
	w := encoding.NewWriter()
	s.Pack(w)
	return Sha256(w.Result())
}
