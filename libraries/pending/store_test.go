package pending

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/proof"
)

func testBundle(t *testing.T, version uint32) proof.Bundle {
	t.Helper()
	b, err := proof.NewScheduleChange(chain.Sha256([]byte("legacy")), chain.ProducerAuthoritySchedule{Version: version}, chain.IncrementalMerkle{NodeCount: 3}, nil, nil)
	require.NoError(t, err)
	return b
}

func TestAppendGet(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	seq, err := s.Append(testBundle(t, 1), "ws://node", "0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	r, err := s.Get(seq)
	require.NoError(t, err)
	require.Equal(t, proof.KindScheduleChange, r.Kind)
	require.Equal(t, StatusPending, r.Status)
	require.Equal(t, "ws://node", r.Endpoint)
	require.Equal(t, "0xabc", r.Identity)

	b, err := r.Decode()
	require.NoError(t, err)
	require.Equal(t, testBundle(t, 1).Call(), b.Call())

	_, err = s.Get(99)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkAndList(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	for v := uint32(1); v <= 4; v++ {
		_, err := s.Append(testBundle(t, v), "ws://node", "0xabc")
		require.NoError(t, err)
	}
	require.NoError(t, s.MarkSubmitted(1, "0xhash1"))
	require.NoError(t, s.MarkFailed(2, errors.New("ledger error (rejected)")))
	require.NoError(t, s.MarkFailed(3, errors.New("timeout")))
	require.NoError(t, s.MarkSubmitted(3, "0xhash3"))

	r, err := s.Get(3)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, r.Status)
	require.Equal(t, "0xhash3", r.TxID)
	require.Empty(t, r.Error)
	require.Equal(t, 2, r.Attempts)

	all, err := s.List("", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, uint64(1), all[0].Seq)

	failed, err := s.List(StatusFailed, 0, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "ledger error (rejected)", failed[0].Error)

	page, err := s.List("", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, uint64(3), page[0].Seq)

	counts, err := s.Counts()
	require.NoError(t, err)
	require.Equal(t, map[Status]int{StatusPending: 1, StatusSubmitted: 2, StatusFailed: 1}, counts)

	require.ErrorIs(t, s.MarkSubmitted(42, "0x"), ErrNotFound)
}

func TestReopenContinuesSequence(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Append(testBundle(t, 1), "ws://node", "0xabc")
	require.NoError(t, err)
	_, err = s.Append(testBundle(t, 2), "ws://node", "0xabc")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	seq, err := s.Append(testBundle(t, 3), "ws://node", "0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(3), seq)
}
