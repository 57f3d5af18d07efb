package proof

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/chain"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

func headers(n int) []chain.SignedBlockHeader {
	out := make([]chain.SignedBlockHeader, n)
	for i := range out {
		out[i].Timestamp = chain.BlockTimestamp(i + 1)
		out[i].Producer = chain.StringToName("producer1")
	}
	return out
}

func idLists(n int) [][]chain.Checksum256 {
	out := make([][]chain.Checksum256, n)
	for i := range out {
		out[i] = []chain.Checksum256{chain.Sha256([]byte{byte(i)})}
	}
	return out
}

func testAction() (chain.Action, chain.ActionReceipt) {
	act := chain.Action{
		Account: chain.StringToName("bifrost"),
		Name:    chain.StringToName("transfer"),
		Data:    chain.Bytes{1, 2},
	}
	receipt := chain.ActionReceipt{
		Receiver:     chain.StringToName("bifrost"),
		ActDigest:    act.Digest(),
		AuthSequence: []chain.AuthSequence{{Account: chain.StringToName("alice"), Sequence: 1}},
	}
	return act, receipt
}

func TestStructuralMismatch(t *testing.T) {
	_, err := NewScheduleChange(chain.Checksum256{}, chain.ProducerAuthoritySchedule{}, chain.IncrementalMerkle{}, headers(3), idLists(2))
	require.ErrorIs(t, err, ErrStructuralMismatch)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	require.Equal(t, 3, me.Left)
	require.Equal(t, 2, me.Right)

	act, receipt := testAction()
	paths := []chain.Checksum256{{1}}
	_, err = NewActionProof(act, receipt, paths, chain.IncrementalMerkle{}, headers(2), idLists(3), chain.Checksum256{})
	require.ErrorIs(t, err, ErrStructuralMismatch)

	_, err = NewActionProof(act, receipt, nil, chain.IncrementalMerkle{}, headers(2), idLists(2), chain.Checksum256{})
	require.ErrorIs(t, err, ErrStructuralMismatch)
	require.Contains(t, err.Error(), "action_merkle_paths")

	_, err = NewScheduleChange(chain.Checksum256{}, chain.ProducerAuthoritySchedule{}, chain.IncrementalMerkle{}, nil, nil)
	require.NoError(t, err)
}

func TestActionProofCall(t *testing.T) {
	act, receipt := testAction()
	trx := chain.Sha256([]byte("trx"))
	p, err := NewActionProof(act, receipt, []chain.Checksum256{{1}, {2}}, chain.IncrementalMerkle{NodeCount: 4}, headers(2), idLists(2), trx)
	require.NoError(t, err)
	require.Equal(t, KindActionProof, p.Kind())

	call := p.Call()
	require.Equal(t, "BridgeEos", call.Module)
	require.Equal(t, "prove_action", call.Function)
	require.Equal(t, "BridgeEos.prove_action", call.String())

	// arguments start with the packed action and end with the trx id
	require.Equal(t, act.Bytes(), call.Args[:len(act.Bytes())])
	require.Equal(t, trx[:], call.Args[len(call.Args)-32:])
}

func TestScheduleChangeCall(t *testing.T) {
	legacy := chain.Sha256([]byte("legacy"))
	s, err := NewScheduleChange(legacy, chain.ProducerAuthoritySchedule{Version: 2}, chain.IncrementalMerkle{}, headers(1), idLists(1))
	require.NoError(t, err)

	call := s.Call()
	require.Equal(t, "change_schedule", call.Function)
	require.Equal(t, legacy[:], call.Args[:32])

	r := encoding.NewReader(call.Args[32:])
	version, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(2), version)
}

func TestMarshalRoundTrip(t *testing.T) {
	act, receipt := testAction()
	p, err := NewActionProof(act, receipt, []chain.Checksum256{{7}}, chain.IncrementalMerkle{NodeCount: 1, ActiveNodes: []chain.Checksum256{{3}}}, headers(2), idLists(2), chain.Checksum256{9})
	require.NoError(t, err)

	data, err := Marshal(p)
	require.NoError(t, err)

	back, err := Unmarshal(KindActionProof, data)
	require.NoError(t, err)
	require.Equal(t, p.Call(), back.Call())

	_, err = Unmarshal("bogus", data)
	require.Error(t, err)
}
