package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unsafe"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/enforce"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ffi"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/proof"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/response"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, endpoint string, signer *ledger.Signer, call ledger.Call) (string, error)
}

type PendingLog interface {
	Append(b proof.Bundle, endpoint, identity string) (uint64, error)
	MarkSubmitted(seq uint64, txID string) error
	MarkFailed(seq uint64, cause error) error
}

// Relay turns raw entry point arguments into ledger submissions. Nothing is
// sent unless every argument decodes and the bundle is well formed.
type Relay struct {
	dispatcher Dispatcher
	log        PendingLog
	signers    sync.Map // seed -> *ledger.Signer
}

// New returns a Relay. log may be nil, in which case nothing is persisted.
func New(dispatcher Dispatcher, log PendingLog) *Relay {
	return &Relay{dispatcher: dispatcher, log: log}
}

type ActionProofArgs struct {
	URL               unsafe.Pointer // const char*
	Signer            unsafe.Pointer // const char*
	Action            *ffi.Action
	ActionReceipt     *ffi.ActionReceipt
	ActionMerklePaths *ffi.ChecksumList
	Merkle            *ffi.IncrementalMerkle
	BlockHeaders      unsafe.Pointer // *ffi.SignedBlockHeader
	BlockHeadersSize  uintptr
	BlockIDsList      unsafe.Pointer // *ffi.ChecksumList
	BlockIDsListSize  uintptr
	TrxID             *ffi.Bytes
}

type ScheduleChangeArgs struct {
	URL                unsafe.Pointer
	Signer             unsafe.Pointer
	LegacyScheduleHash *ffi.Bytes
	Schedule           *ffi.ProducerAuthoritySchedule
	Merkle             *ffi.IncrementalMerkle
	BlockHeaders       unsafe.Pointer
	BlockHeadersSize   uintptr
	BlockIDsList       unsafe.Pointer
	BlockIDsListSize   uintptr
}

type required struct {
	field string
	ptr   unsafe.Pointer
}

func checkRequired(reqs ...required) error {
	for _, r := range reqs {
		if r.ptr == nil {
			return &ffi.DecodeError{Field: r.field, Kind: ffi.ErrNullPointer}
		}
	}
	return nil
}

func (r *Relay) SubmitActionProof(ctx context.Context, a *ActionProofArgs) response.Response {
	return r.guard(proof.KindActionProof, func() (string, error) {
		if a == nil {
			return "", &ffi.DecodeError{Field: "arguments", Kind: ffi.ErrNullPointer}
		}
		if err := checkRequired(
			required{"url", a.URL},
			required{"signer", a.Signer},
			required{"action", unsafe.Pointer(a.Action)},
			required{"action_receipt", unsafe.Pointer(a.ActionReceipt)},
			required{"action_merkle_paths", unsafe.Pointer(a.ActionMerklePaths)},
			required{"merkle", unsafe.Pointer(a.Merkle)},
			required{"trx_id", unsafe.Pointer(a.TrxID)},
		); err != nil {
			return "", err
		}
		endpoint, signer, err := r.target(a.URL, a.Signer)
		if err != nil {
			return "", err
		}

		action, err := ffi.DecodeAction("action", a.Action)
		if err != nil {
			return "", err
		}
		receipt, err := ffi.DecodeActionReceipt("action_receipt", a.ActionReceipt)
		if err != nil {
			return "", err
		}
		paths, err := ffi.DecodeChecksumList("action_merkle_paths", a.ActionMerklePaths)
		if err != nil {
			return "", err
		}
		merkle, err := ffi.DecodeIncrementalMerkle("merkle", a.Merkle)
		if err != nil {
			return "", err
		}
		headers, err := ffi.DecodeSignedBlockHeaders("block_headers", a.BlockHeaders, a.BlockHeadersSize)
		if err != nil {
			return "", err
		}
		ids, err := ffi.DecodeChecksumLists("block_ids_list", a.BlockIDsList, a.BlockIDsListSize)
		if err != nil {
			return "", err
		}
		trxID, err := ffi.DecodeChecksum256("trx_id", a.TrxID)
		if err != nil {
			return "", err
		}

		bundle, err := proof.NewActionProof(action, receipt, paths, merkle, headers, ids, trxID)
		if err != nil {
			return "", err
		}
		logger.Printf("decode", "action proof %s::%s trx %s with %d headers", action.Account, action.Name, trxID, len(headers))
		return r.Submit(ctx, endpoint, signer, bundle)
	})
}

func (r *Relay) SubmitScheduleChange(ctx context.Context, a *ScheduleChangeArgs) response.Response {
	return r.guard(proof.KindScheduleChange, func() (string, error) {
		if a == nil {
			return "", &ffi.DecodeError{Field: "arguments", Kind: ffi.ErrNullPointer}
		}
		if err := checkRequired(
			required{"url", a.URL},
			required{"signer", a.Signer},
			required{"legacy_schedule_hash", unsafe.Pointer(a.LegacyScheduleHash)},
			required{"schedule", unsafe.Pointer(a.Schedule)},
			required{"merkle", unsafe.Pointer(a.Merkle)},
		); err != nil {
			return "", err
		}
		endpoint, signer, err := r.target(a.URL, a.Signer)
		if err != nil {
			return "", err
		}

		legacy, err := ffi.DecodeChecksum256("legacy_schedule_hash", a.LegacyScheduleHash)
		if err != nil {
			return "", err
		}
		schedule, err := ffi.DecodeProducerAuthoritySchedule("schedule", a.Schedule)
		if err != nil {
			return "", err
		}
		merkle, err := ffi.DecodeIncrementalMerkle("merkle", a.Merkle)
		if err != nil {
			return "", err
		}
		headers, err := ffi.DecodeSignedBlockHeaders("block_headers", a.BlockHeaders, a.BlockHeadersSize)
		if err != nil {
			return "", err
		}
		ids, err := ffi.DecodeChecksumLists("block_ids_list", a.BlockIDsList, a.BlockIDsListSize)
		if err != nil {
			return "", err
		}

		bundle, err := proof.NewScheduleChange(legacy, schedule, merkle, headers, ids)
		if err != nil {
			return "", err
		}
		logger.Printf("decode", "schedule change to version %d with %d producers", schedule.Version, len(schedule.Producers))
		return r.Submit(ctx, endpoint, signer, bundle)
	})
}

func (r *Relay) target(urlPtr, seedPtr unsafe.Pointer) (string, *ledger.Signer, error) {
	endpoint, err := ffi.DecodeCString("url", urlPtr)
	if err != nil {
		return "", nil, err
	}
	seed, err := ffi.DecodeCString("signer", seedPtr)
	if err != nil {
		return "", nil, err
	}
	signer, err := r.Signer(seed)
	if err != nil {
		return "", nil, err
	}
	return endpoint, signer, nil
}

// Signer derives the keypair for seed once and caches it.
func (r *Relay) Signer(seed string) (*ledger.Signer, error) {
	if s, ok := r.signers.Load(seed); ok {
		return s.(*ledger.Signer), nil
	}
	s, err := ledger.NewSigner(seed)
	if err != nil {
		return nil, err
	}
	actual, _ := r.signers.LoadOrStore(seed, s)
	return actual.(*ledger.Signer), nil
}

// Submit records b in the pending log, dispatches it and records the outcome.
// A pending log failure is logged and does not stop the submission.
func (r *Relay) Submit(ctx context.Context, endpoint string, signer *ledger.Signer, b proof.Bundle) (string, error) {
	var seq uint64
	if r.log != nil {
		var err error
		if seq, err = r.log.Append(b, endpoint, signer.Identity()); err != nil {
			logger.Warning("pending log append failed: %v", err)
		}
	}
	return r.dispatch(ctx, seq, endpoint, signer, b)
}

// Resubmit dispatches a record from the pending log again under its own
// sequence number. An empty endpoint uses the one it was recorded with.
func (r *Relay) Resubmit(ctx context.Context, rec *pending.Record, endpoint string, signer *ledger.Signer) (string, error) {
	b, err := rec.Decode()
	if err != nil {
		return "", err
	}
	if endpoint == "" {
		endpoint = rec.Endpoint
	}
	logger.Printf("pending", "replaying %s #%d to %s", rec.Kind, rec.Seq, endpoint)
	return r.dispatch(ctx, rec.Seq, endpoint, signer, b)
}

func (r *Relay) dispatch(ctx context.Context, seq uint64, endpoint string, signer *ledger.Signer, b proof.Bundle) (string, error) {
	hash, err := r.dispatcher.Dispatch(ctx, endpoint, signer, b.Call())
	if r.log != nil && seq != 0 {
		var markErr error
		if err != nil {
			markErr = r.log.MarkFailed(seq, err)
		} else {
			markErr = r.log.MarkSubmitted(seq, hash)
		}
		if markErr != nil {
			logger.Warning("pending log update for #%d failed: %v", seq, markErr)
		}
	}
	return hash, err
}

func (r *Relay) guard(kind proof.Kind, fn func() (string, error)) response.Response {
	var hash string
	err := enforce.Guard(func() error {
		var err error
		hash, err = fn()
		return err
	})
	if err == nil {
		RequestsTotal.WithLabelValues(string(kind), "ok").Inc()
		return response.Success(hash)
	}

	RequestsTotal.WithLabelValues(string(kind), "error").Inc()
	if reason := rejectReason(err); reason != "" {
		DecodeFailures.WithLabelValues(string(kind), reason).Inc()
		logger.Printf("decode", "%s rejected: %v", kind, err)
	} else {
		logger.Printf("submit", "%s failed: %v", kind, err)
	}
	if errors.Is(err, enforce.ErrPanic) {
		return response.UnknownError()
	}
	return response.Failure(err)
}

// rejectReason names errors that stop a request before any network call.
func rejectReason(err error) string {
	var de *ffi.DecodeError
	switch {
	case errors.As(err, &de):
		return strings.ReplaceAll(de.Kind.Error(), " ", "_")
	case errors.Is(err, proof.ErrStructuralMismatch):
		return "structural_mismatch"
	case errors.Is(err, ledger.ErrWrongSigningSeed):
		return "wrong_signing_seed"
	}
	return ""
}
