package ledger

import (
	"context"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

// Call is a runtime call: pallet, function and its encoded arguments.
type Call struct {
	Module   string
	Function string
	Args     []byte
}

func (c Call) String() string {
	return c.Module + "." + c.Function
}

func (c Call) Encode() []byte {
	w := encoding.NewWriter()
	w.Bytes([]byte(c.Module))
	w.Bytes([]byte(c.Function))
	w.Bytes(c.Args)
	return w.Result()
}

type Client interface {
	// AccountNonce returns the next sequence number the ledger expects from
	// identity, including transactions already in its pool.
	AccountNonce(ctx context.Context, identity string) (uint64, error)
	SubmitCall(ctx context.Context, call Call, signer *Signer, nonce uint64) (string, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Client, error)
}

type DialerFunc func(ctx context.Context, endpoint string) (Client, error)

func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Client, error) {
	return f(ctx, endpoint)
}
