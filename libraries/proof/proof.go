package proof

import (
	"errors"
	"fmt"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
)

const Module = "BridgeEos"

type Kind string

const (
	KindScheduleChange Kind = "schedule_change"
	KindActionProof    Kind = "action_proof"
)

var ErrStructuralMismatch = errors.New("structural mismatch")

// MismatchError reports two parts of a bundle whose shapes disagree.
type MismatchError struct {
	Field string
	Other string
	Left  int
	Right int
}

func (e *MismatchError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("%s: %s must not be empty", ErrStructuralMismatch, e.Field)
	}
	return fmt.Sprintf("%s: %s has %d entries, %s has %d", ErrStructuralMismatch, e.Field, e.Left, e.Other, e.Right)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

// Bundle is a fully decoded proof ready to become a ledger call.
type Bundle interface {
	Kind() Kind
	Call() ledger.Call
}

func checkHeaders(headers []chain.SignedBlockHeader, ids [][]chain.Checksum256) error {
	if len(headers) != len(ids) {
		return &MismatchError{Field: "block_headers", Other: "block_ids_list", Left: len(headers), Right: len(ids)}
	}
	return nil
}

func packHeaders(w *encoding.Writer, headers []chain.SignedBlockHeader, ids [][]chain.Checksum256) {
	w.Varuint32(uint32(len(headers)))
	for i := range headers {
		headers[i].Pack(w)
	}
	w.Varuint32(uint32(len(ids)))
	for _, list := range ids {
		chain.PackChecksums(w, list)
	}
}

type ScheduleChange struct {
	LegacyScheduleHash chain.Checksum256               `json:"legacy_schedule_hash"`
	Schedule           chain.ProducerAuthoritySchedule `json:"schedule"`
	Merkle             chain.IncrementalMerkle         `json:"merkle"`
	BlockHeaders       []chain.SignedBlockHeader       `json:"block_headers"`
	BlockIDsList       [][]chain.Checksum256           `json:"block_ids_list"`
}

func NewScheduleChange(legacyHash chain.Checksum256, schedule chain.ProducerAuthoritySchedule, merkle chain.IncrementalMerkle,
	headers []chain.SignedBlockHeader, ids [][]chain.Checksum256) (*ScheduleChange, error) {
	if err := checkHeaders(headers, ids); err != nil {
		return nil, err
	}
	return &ScheduleChange{
		LegacyScheduleHash: legacyHash,
		Schedule:           schedule,
		Merkle:             merkle,
		BlockHeaders:       headers,
		BlockIDsList:       ids,
	}, nil
}

func (s *ScheduleChange) Kind() Kind {
	return KindScheduleChange
}

func (s *ScheduleChange) Call() ledger.Call {
	w := encoding.NewWriter()
	w.Raw(s.LegacyScheduleHash[:])
	s.Schedule.Pack(w)
	s.Merkle.Pack(w)
	packHeaders(w, s.BlockHeaders, s.BlockIDsList)
	return ledger.Call{Module: Module, Function: "change_schedule", Args: w.Result()}
}

type ActionProof struct {
	Action            chain.Action              `json:"action"`
	ActionReceipt     chain.ActionReceipt       `json:"action_receipt"`
	ActionMerklePaths []chain.Checksum256       `json:"action_merkle_paths"`
	Merkle            chain.IncrementalMerkle   `json:"merkle"`
	BlockHeaders      []chain.SignedBlockHeader `json:"block_headers"`
	BlockIDsList      [][]chain.Checksum256     `json:"block_ids_list"`
	TrxID             chain.Checksum256         `json:"trx_id"`
}

func NewActionProof(action chain.Action, receipt chain.ActionReceipt, paths []chain.Checksum256, merkle chain.IncrementalMerkle,
	headers []chain.SignedBlockHeader, ids [][]chain.Checksum256, trxID chain.Checksum256) (*ActionProof, error) {
	if len(paths) == 0 {
		return nil, &MismatchError{Field: "action_merkle_paths"}
	}
	if err := checkHeaders(headers, ids); err != nil {
		return nil, err
	}
	return &ActionProof{
		Action:            action,
		ActionReceipt:     receipt,
		ActionMerklePaths: paths,
		Merkle:            merkle,
		BlockHeaders:      headers,
		BlockIDsList:      ids,
		TrxID:             trxID,
	}, nil
}

func (p *ActionProof) Kind() Kind {
	return KindActionProof
}

func (p *ActionProof) Call() ledger.Call {
	w := encoding.NewWriter()
	p.Action.Pack(w)
	p.ActionReceipt.Pack(w)
	chain.PackChecksums(w, p.ActionMerklePaths)
	p.Merkle.Pack(w)
	packHeaders(w, p.BlockHeaders, p.BlockIDsList)
	w.Raw(p.TrxID[:])
	return ledger.Call{Module: Module, Function: "prove_action", Args: w.Result()}
}

// Marshal encodes a bundle for the pending log.
func Marshal(b Bundle) ([]byte, error) {
	return encoding.JSONiter.Marshal(b)
}

// Unmarshal restores a bundle written by Marshal and re-checks its shape.
func Unmarshal(kind Kind, data []byte) (Bundle, error) {
	switch kind {
	case KindScheduleChange:
		var s ScheduleChange
		if err := encoding.JSONiter.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return NewScheduleChange(s.LegacyScheduleHash, s.Schedule, s.Merkle, s.BlockHeaders, s.BlockIDsList)
	case KindActionProof:
		var p ActionProof
		if err := encoding.JSONiter.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return NewActionProof(p.Action, p.ActionReceipt, p.ActionMerklePaths, p.Merkle, p.BlockHeaders, p.BlockIDsList, p.TrxID)
	}
	return nil, fmt.Errorf("unknown bundle kind %q", kind)
}
