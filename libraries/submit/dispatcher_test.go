package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/nonce"
)

type fakeClient struct {
	mu       sync.Mutex
	ledgerAt uint64
	results  []error
	nonces   []uint64
	queries  int
	closed   atomic.Bool
}

func (f *fakeClient) AccountNonce(ctx context.Context, identity string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.ledgerAt, nil
}

func (f *fakeClient) SubmitCall(ctx context.Context, call ledger.Call, signer *ledger.Signer, n uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces = append(f.nonces, n)
	if len(f.results) > 0 {
		err := f.results[0]
		f.results = f.results[1:]
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("0xhash%d", n), nil
}

func (f *fakeClient) Close() error {
	f.closed.Store(true)
	return nil
}

type countingDialer struct {
	dials  atomic.Int64
	client func() ledger.Client
	err    error
}

func (d *countingDialer) Dial(ctx context.Context, endpoint string) (ledger.Client, error) {
	d.dials.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.client(), nil
}

var call = ledger.Call{Module: "BridgeEos", Function: "prove_action", Args: []byte{1}}

func newSigner(t *testing.T) *ledger.Signer {
	s, err := ledger.NewSigner("//Dispatcher")
	require.NoError(t, err)
	return s
}

func TestDispatchSuccess(t *testing.T) {
	fc := &fakeClient{ledgerAt: 11}
	dialer := &countingDialer{client: func() ledger.Client { return fc }}
	d := NewDispatcher(dialer, nonce.NewCoordinator())

	before := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("prove_action", "ok"))
	for i := 0; i < 3; i++ {
		hash, err := d.Dispatch(context.Background(), "ws://node", newSigner(t), call)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("0xhash%d", 11+i), hash)
	}
	require.Equal(t, int64(1), dialer.dials.Load(), "client should be cached")
	require.Equal(t, 1, fc.queries, "ledger nonce read once")
	require.Equal(t, before+3, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("prove_action", "ok")))
}

func TestDispatchRetriesOnceAfterSequenceTooLow(t *testing.T) {
	tooLow := ledger.Classify(1014, "Priority is too low", "")
	fc := &fakeClient{ledgerAt: 5, results: []error{tooLow}}
	coord := nonce.NewCoordinator()
	d := NewDispatcher(&countingDialer{client: func() ledger.Client { return fc }}, coord)
	signer := newSigner(t)

	retries := testutil.ToFloat64(RetriesTotal.WithLabelValues("prove_action"))

	// someone else used nonces 5..7 before the resync
	fc.ledgerAt = 5
	_, err := coord.Acquire(context.Background(), fc, signer.Identity())
	require.NoError(t, err)
	fc.ledgerAt = 8

	hash, err := d.Dispatch(context.Background(), "ws://node", signer, call)
	require.NoError(t, err)
	require.Equal(t, "0xhash8", hash)
	require.Equal(t, []uint64{6, 8}, fc.nonces)
	require.Equal(t, retries+1, testutil.ToFloat64(RetriesTotal.WithLabelValues("prove_action")))
}

func TestDispatchRetryIsBounded(t *testing.T) {
	tooLow := ledger.Classify(1014, "Priority is too low", "")
	fc := &fakeClient{ledgerAt: 1, results: []error{tooLow, tooLow, tooLow}}
	d := NewDispatcher(&countingDialer{client: func() ledger.Client { return fc }}, nonce.NewCoordinator())

	_, err := d.Dispatch(context.Background(), "ws://node", newSigner(t), call)
	require.True(t, ledger.IsSequenceTooLow(err))
	require.Len(t, fc.nonces, 2, "exactly one retry")
}

func TestDispatchOtherErrorsNotRetried(t *testing.T) {
	for _, kind := range []ledger.Kind{ledger.KindRejected, ledger.KindTimeout} {
		fc := &fakeClient{results: []error{&ledger.Error{Kind: kind}}}
		d := NewDispatcher(&countingDialer{client: func() ledger.Client { return fc }}, nonce.NewCoordinator())

		_, err := d.Dispatch(context.Background(), "ws://node", newSigner(t), call)
		require.Equal(t, kind, ledger.KindOf(err))
		require.Len(t, fc.nonces, 1, "%s must not be retried", kind)
		require.Equal(t, kind == ledger.KindTimeout, fc.closed.Load())
	}

	plain := errors.New("boom")
	fc := &fakeClient{results: []error{plain}}
	d := NewDispatcher(&countingDialer{client: func() ledger.Client { return fc }}, nonce.NewCoordinator())
	_, err := d.Dispatch(context.Background(), "ws://node", newSigner(t), call)
	require.ErrorIs(t, err, plain)
	require.Len(t, fc.nonces, 1)
}

func TestDispatchConnectionErrorEvicts(t *testing.T) {
	var made []*fakeClient
	dialer := &countingDialer{client: func() ledger.Client {
		fc := &fakeClient{}
		if len(made) == 0 {
			fc.results = []error{&ledger.Error{Kind: ledger.KindConnection}}
		}
		made = append(made, fc)
		return fc
	}}
	d := NewDispatcher(dialer, nonce.NewCoordinator())
	signer := newSigner(t)

	_, err := d.Dispatch(context.Background(), "ws://node", signer, call)
	require.True(t, ledger.IsConnection(err))
	require.True(t, made[0].closed.Load())

	_, err = d.Dispatch(context.Background(), "ws://node", signer, call)
	require.NoError(t, err)
	require.Equal(t, int64(2), dialer.dials.Load())
}

func TestDispatchTimeoutEvicts(t *testing.T) {
	var made []*fakeClient
	dialer := &countingDialer{client: func() ledger.Client {
		fc := &fakeClient{}
		if len(made) == 0 {
			fc.results = []error{&ledger.Error{Kind: ledger.KindTimeout, Message: "author_submitExtrinsic"}}
		}
		made = append(made, fc)
		return fc
	}}
	d := NewDispatcher(dialer, nonce.NewCoordinator())
	signer := newSigner(t)

	_, err := d.Dispatch(context.Background(), "ws://node", signer, call)
	require.True(t, ledger.IsTimeout(err))
	require.Len(t, made[0].nonces, 1)
	require.True(t, made[0].closed.Load())

	_, err = d.Dispatch(context.Background(), "ws://node", signer, call)
	require.NoError(t, err)
	require.Equal(t, int64(2), dialer.dials.Load())
	require.Len(t, made, 2)
	require.False(t, made[1].closed.Load())
}

func TestDispatchDialError(t *testing.T) {
	dialErr := &ledger.Error{Kind: ledger.KindConnection, Message: "dial"}
	d := NewDispatcher(&countingDialer{err: dialErr}, nonce.NewCoordinator())
	_, err := d.Dispatch(context.Background(), "ws://node", newSigner(t), call)
	require.ErrorIs(t, err, dialErr)
}

func TestDispatchConcurrentNonces(t *testing.T) {
	fc := &fakeClient{ledgerAt: 40}
	d := NewDispatcher(&countingDialer{client: func() ledger.Client { return fc }}, nonce.NewCoordinator())
	signer := newSigner(t)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Dispatch(context.Background(), "ws://node", signer, call); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	d.Close()

	seen := make(map[uint64]bool)
	for _, v := range fc.nonces {
		require.False(t, seen[v], "nonce %d reused", v)
		require.GreaterOrEqual(t, v, uint64(40))
		require.Less(t, v, uint64(40+n))
		seen[v] = true
	}
	require.True(t, fc.closed.Load())
}
