package relay_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ripemd160"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ffi"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger/ledgertest"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/nonce"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/proof"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/relay"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/response"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/submit"
)

const (
	devKey = "PUB_K1_6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5BoDq63"
	seed   = "//Alice"
)

func cstr(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

func sigText(n byte) string {
	data := make([]byte, 65)
	for i := range data {
		data[i] = n + byte(i)
	}
	h := ripemd160.New()
	h.Write(data)
	h.Write([]byte("K1"))
	return "SIG_K1_" + base58.Encode(append(data, h.Sum(nil)[:4]...))
}

func bytesOf(b []byte) *ffi.Bytes {
	return &ffi.Bytes{Data: unsafe.Pointer(&b[0]), Size: uintptr(len(b))}
}

func name(s string) uint64 {
	return uint64(chain.StringToName(s))
}

func checksums(n int, fill byte) []ffi.Checksum256 {
	out := make([]ffi.Checksum256, n)
	for i := range out {
		out[i].Hash[0] = fill
		out[i].Hash[1] = byte(i)
	}
	return out
}

func headerArgs(nHeaders, nIDs, idsPerList int) (unsafe.Pointer, uintptr, unsafe.Pointer, uintptr) {
	headers := make([]ffi.SignedBlockHeader, nHeaders)
	for i := range headers {
		headers[i] = ffi.SignedBlockHeader{
			Timestamp:         uint32(1000 + i),
			Producer:          name("producer1"),
			ScheduleVersion:   1,
			ProducerSignature: cstr(sigText(byte(i))),
		}
	}
	lists := make([]ffi.ChecksumList, nIDs)
	for i := range lists {
		ids := checksums(idsPerList, byte(i))
		lists[i] = ffi.ChecksumList{IDs: unsafe.Pointer(&ids[0]), IDsSize: uintptr(len(ids))}
	}

	var hp, lp unsafe.Pointer
	if nHeaders > 0 {
		hp = unsafe.Pointer(&headers[0])
	}
	if nIDs > 0 {
		lp = unsafe.Pointer(&lists[0])
	}
	return hp, uintptr(nHeaders), lp, uintptr(nIDs)
}

func merkleArg() *ffi.IncrementalMerkle {
	nodes := checksums(3, 0xaa)
	return &ffi.IncrementalMerkle{NodeCount: 7, ActiveNodes: unsafe.Pointer(&nodes[0]), ActiveNodesSize: 3}
}

func actionProofArgs(url string, nHeaders, nIDs int) *relay.ActionProofArgs {
	auths := []ffi.PermissionLevel{{Actor: name("alice"), Permission: name("active")}}
	data := []byte{0x01, 0x02, 0x03}
	digest := make([]byte, 32)
	digest[0] = 0xde
	seqs := []ffi.AuthSequence{{Account: name("alice"), Sequence: 42}}
	paths := checksums(2, 0xbb)
	trx := make([]byte, 32)
	trx[31] = 0x01

	a := &relay.ActionProofArgs{
		URL:    cstr(url),
		Signer: cstr(seed),
		Action: &ffi.Action{
			Account:           name("bifrost"),
			Name:              name("transfer"),
			Authorization:     unsafe.Pointer(&auths[0]),
			AuthorizationSize: 1,
			Data:              *bytesOf(data),
		},
		ActionReceipt: &ffi.ActionReceipt{
			Receiver:         name("bifrost"),
			ActDigest:        *bytesOf(digest),
			GlobalSequence:   1000,
			RecvSequence:     10,
			AuthSequence:     unsafe.Pointer(&seqs[0]),
			AuthSequenceSize: 1,
			CodeSequence:     1,
			AbiSequence:      1,
		},
		ActionMerklePaths: &ffi.ChecksumList{IDs: unsafe.Pointer(&paths[0]), IDsSize: 2},
		Merkle:            merkleArg(),
		TrxID:             bytesOf(trx),
	}
	a.BlockHeaders, a.BlockHeadersSize, a.BlockIDsList, a.BlockIDsListSize = headerArgs(nHeaders, nIDs, 5)
	return a
}

func scheduleChangeArgs(url string) *relay.ScheduleChangeArgs {
	keys := []ffi.KeyWeight{{Key: cstr(devKey), Weight: 1}}
	producers := []ffi.ProducerAuthority{{ProducerName: name("producer1"), Threshold: 1, Keys: unsafe.Pointer(&keys[0]), KeysSize: 1}}
	legacy := make([]byte, 32)
	legacy[0] = 0x11

	a := &relay.ScheduleChangeArgs{
		URL:                cstr(url),
		Signer:             cstr(seed),
		LegacyScheduleHash: bytesOf(legacy),
		Schedule:           &ffi.ProducerAuthoritySchedule{Version: 2, Producers: unsafe.Pointer(&producers[0]), ProducersSize: 1},
		Merkle:             merkleArg(),
	}
	a.BlockHeaders, a.BlockHeadersSize, a.BlockIDsList, a.BlockIDsListSize = headerArgs(2, 2, 3)
	return a
}

type harness struct {
	node  *ledgertest.Node
	store *pending.Store
	relay *relay.Relay
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	node := ledgertest.NewNode()
	t.Cleanup(node.Close)

	store, err := pending.Open(filepath.Join(t.TempDir(), "pending"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dialer := ledger.NewWSDialer(2*time.Second, ledger.BreakerConfig{MaxFailures: 5, OpenTimeout: time.Second})
	d := submit.NewDispatcher(dialer, nonce.NewCoordinator())
	t.Cleanup(d.Close)

	return &harness{node: node, store: store, relay: relay.New(d, store)}
}

func (h *harness) requests() int {
	return h.node.Requests(ledger.MethodAccountNextIndex) + h.node.Requests(ledger.MethodSubmitExtrinsic)
}

func TestSubmitActionProof(t *testing.T) {
	h := newHarness(t)

	resp := h.relay.SubmitActionProof(context.Background(), actionProofArgs(h.node.URL(), 2, 2))
	require.True(t, resp.Success, resp.Message)

	subs := h.node.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, subs[0].Hash, resp.Message)
	require.Equal(t, proof.Module, subs[0].Call.Module)
	require.Equal(t, "prove_action", subs[0].Call.Function)
	require.Equal(t, uint64(0), subs[0].Nonce)

	records, err := h.store.List(pending.StatusSubmitted, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, resp.Message, records[0].TxID)
	require.Equal(t, proof.KindActionProof, records[0].Kind)

	resp = h.relay.SubmitActionProof(context.Background(), actionProofArgs(h.node.URL(), 1, 1))
	require.True(t, resp.Success, resp.Message)
	subs = h.node.Submissions()
	require.Len(t, subs, 2)
	require.Equal(t, uint64(1), subs[1].Nonce)
}

func TestSubmitScheduleChange(t *testing.T) {
	h := newHarness(t)

	resp := h.relay.SubmitScheduleChange(context.Background(), scheduleChangeArgs(h.node.URL()))
	require.True(t, resp.Success, resp.Message)

	subs := h.node.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "change_schedule", subs[0].Call.Function)
}

func TestNullArgumentStopsBeforeNetwork(t *testing.T) {
	h := newHarness(t)

	a := actionProofArgs(h.node.URL(), 2, 2)
	a.Action = nil
	resp := h.relay.SubmitActionProof(context.Background(), a)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "null")
	require.Contains(t, resp.Message, "action")

	s := scheduleChangeArgs(h.node.URL())
	s.URL = nil
	resp = h.relay.SubmitScheduleChange(context.Background(), s)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "null pointer: url")

	resp = h.relay.SubmitActionProof(context.Background(), nil)
	require.False(t, resp.Success)

	require.Zero(t, h.requests())
	records, err := h.store.List("", 0, 0)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestStructuralMismatchStopsBeforeNetwork(t *testing.T) {
	h := newHarness(t)

	resp := h.relay.SubmitActionProof(context.Background(), actionProofArgs(h.node.URL(), 3, 2))
	require.False(t, resp.Success)
	require.NotEqual(t, response.UnknownMessage, resp.Message)
	require.Zero(t, h.requests())
}

func TestDecodeErrorsStopBeforeNetwork(t *testing.T) {
	h := newHarness(t)

	a := actionProofArgs(h.node.URL(), 2, 2)
	a.TrxID.Size = 31
	resp := h.relay.SubmitActionProof(context.Background(), a)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "trx_id")

	s := scheduleChangeArgs(h.node.URL())
	s.Signer = cstr("alice")
	resp = h.relay.SubmitScheduleChange(context.Background(), s)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, ledger.ErrWrongSigningSeed.Error())

	require.Zero(t, h.requests())
}

func TestLedgerRejectionIsRecorded(t *testing.T) {
	h := newHarness(t)
	h.node.RejectNext(1002, "Verification Error: Runtime error: proof does not verify")

	resp := h.relay.SubmitActionProof(context.Background(), actionProofArgs(h.node.URL(), 2, 2))
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "proof does not verify")
	require.Equal(t, 1, h.node.Requests(ledger.MethodSubmitExtrinsic))

	failed, err := h.store.List(pending.StatusFailed, 0, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Contains(t, failed[0].Error, "proof does not verify")

	signer, err := h.relay.Signer(seed)
	require.NoError(t, err)
	txID, err := h.relay.Resubmit(context.Background(), failed[0], "", signer)
	require.NoError(t, err)

	rec, err := h.store.Get(failed[0].Seq)
	require.NoError(t, err)
	require.Equal(t, pending.StatusSubmitted, rec.Status)
	require.Equal(t, txID, rec.TxID)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(ctx context.Context, endpoint string, signer *ledger.Signer, call ledger.Call) (string, error) {
	panic("boom")
}

func TestPanicBecomesUnknownError(t *testing.T) {
	r := relay.New(panickingDispatcher{}, nil)
	resp := r.SubmitScheduleChange(context.Background(), scheduleChangeArgs("ws://127.0.0.1:1"))
	require.Equal(t, response.UnknownError(), resp)
}

type recordingDispatcher struct {
	calls []ledger.Call
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, endpoint string, signer *ledger.Signer, call ledger.Call) (string, error) {
	d.calls = append(d.calls, call)
	if d.err != nil {
		return "", d.err
	}
	return "0xabc", nil
}

func TestWithoutPendingLog(t *testing.T) {
	d := &recordingDispatcher{}
	r := relay.New(d, nil)

	resp := r.SubmitActionProof(context.Background(), actionProofArgs("ws://unused", 0, 0))
	require.True(t, resp.Success, resp.Message)
	require.Equal(t, "0xabc", resp.Message)
	require.Len(t, d.calls, 1)

	d.err = &ledger.Error{Kind: ledger.KindConnection, Err: errors.New("connection refused")}
	resp = r.SubmitActionProof(context.Background(), actionProofArgs("ws://unused", 0, 0))
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "connection refused")
}

func TestSignerIsCached(t *testing.T) {
	r := relay.New(&recordingDispatcher{}, nil)
	a, err := r.Signer(seed)
	require.NoError(t, err)
	b, err := r.Signer(seed)
	require.NoError(t, err)
	require.Same(t, a, b)
}
