package chain

import (
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

const MSINTERVAL = 500

var blockEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// BlockTimestamp counts half-second slots since 2000-01-01.
type BlockTimestamp uint32

func (t BlockTimestamp) Time() time.Time {
	return blockEpoch.Add(time.Duration(uint64(t)*MSINTERVAL) * time.Millisecond)
}

func (t BlockTimestamp) String() string {
	return t.Time().Format("2006-01-02T15:04:05.000")
}

func NewBlockTimestamp(tm time.Time) BlockTimestamp {
	return BlockTimestamp(tm.Sub(blockEpoch).Milliseconds() / MSINTERVAL)
}

type Extension struct {
	Type uint16 `json:"type"`
	Data Bytes  `json:"data"`
}

type BlockHeader struct {
	Timestamp        BlockTimestamp    `json:"timestamp"`
	Producer         Name              `json:"producer"`
	Confirmed        uint16            `json:"confirmed"`
	Previous         Checksum256       `json:"previous"`
	TransactionMroot Checksum256       `json:"transaction_mroot"`
	ActionMroot      Checksum256       `json:"action_mroot"`
	ScheduleVersion  uint32            `json:"schedule_version"`
	NewProducers     *ProducerSchedule `json:"new_producers,omitempty"`
	HeaderExtensions []Extension       `json:"header_extensions"`
}

func (h *BlockHeader) Pack(w *encoding.Writer) {
	w.Uint32(uint32(h.Timestamp))
	w.Uint64(uint64(h.Producer))
	w.Uint16(h.Confirmed)
	w.Raw(h.Previous[:])
	w.Raw(h.TransactionMroot[:])
	w.Raw(h.ActionMroot[:])
	w.Uint32(h.ScheduleVersion)
	w.Bool(h.NewProducers != nil)
	if h.NewProducers != nil {
		h.NewProducers.Pack(w)
	}
	w.Varuint32(uint32(len(h.HeaderExtensions)))
	for _, ext := range h.HeaderExtensions {
		w.Uint16(ext.Type)
		w.Bytes(ext.Data)
	}
}

// Digest is the header hash the producer signs over, before the chain id
// and schedule are mixed in.
func (h *BlockHeader) Digest() Checksum256 {
	w := encoding.NewWriter()
	h.Pack(w)
	return Sha256(w.Result())
}

type SignedBlockHeader struct {
	BlockHeader
	ProducerSignature Signature `json:"producer_signature"`
}

func (h *SignedBlockHeader) Pack(w *encoding.Writer) {
	h.BlockHeader.Pack(w)
	h.ProducerSignature.Pack(w)
}
