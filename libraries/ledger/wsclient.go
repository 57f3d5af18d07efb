package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"nhooyr.io/websocket"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
)

const (
	MethodAccountNextIndex = "system_accountNextIndex"
	MethodSubmitExtrinsic  = "author_submitExtrinsic"
)

type BreakerConfig struct {
	MaxFailures uint32        `name:"max-failures" default:"5" help:"Consecutive dial failures before the breaker opens"`
	OpenTimeout time.Duration `name:"open-timeout" default:"30s" help:"How long the breaker stays open"`
}

// WSDialer opens JSON-RPC connections over websocket. Dials go through one
// circuit breaker per dialer so a dead node is not hammered on every call.
type WSDialer struct {
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewWSDialer(rpcTimeout time.Duration, cfg BreakerConfig) *WSDialer {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "ledger-dial",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("ledger", "breaker %s: %s -> %s", name, from, to)
			if to == gobreaker.StateOpen {
				BreakerOpen.Set(1)
			} else {
				BreakerOpen.Set(0)
			}
		},
	}
	return &WSDialer{timeout: rpcTimeout, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (d *WSDialer) Dial(ctx context.Context, endpoint string) (Client, error) {
	res, err := d.breaker.Execute(func() (interface{}, error) {
		dialCtx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		conn, _, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{})
		if err != nil {
			return nil, err
		}
		return conn, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindConnection, Message: "circuit breaker open for " + endpoint, Err: err}
		}
		return nil, &Error{Kind: KindConnection, Message: "dial " + endpoint, Err: err}
	}
	logger.Printf("ledger", "connected to %s", endpoint)
	return newWSClient(res.(*websocket.Conn), d.timeout), nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type wsClient struct {
	conn    *websocket.Conn
	timeout time.Duration
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan rpcResponse
	done    chan struct{}
	err     error
}

func newWSClient(conn *websocket.Conn, timeout time.Duration) *wsClient {
	c := &wsClient{
		conn:    conn,
		timeout: timeout,
		pending: make(map[uint64]chan rpcResponse),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *wsClient) readLoop() {
	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			c.fail(err)
			return
		}
		var resp rpcResponse
		if err := encoding.JSONiter.Unmarshal(data, &resp); err != nil {
			logger.Printf("debug-ledger", "dropping unparseable frame: %v", err)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (c *wsClient) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	close(c.done)
}

func (c *wsClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	id := c.nextID.Add(1)
	ch := make(chan rpcResponse, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return &Error{Kind: KindConnection, Message: "connection closed", Err: err}
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	frame, err := encoding.JSONiter.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return err
	}
	logger.Printf("debug-ledger", "-> %s id=%d", method, id)
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindTimeout, Message: method, Err: ctx.Err()}
		}
		return &Error{Kind: KindConnection, Message: method, Err: err}
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			data := ""
			if resp.Error.Data != nil {
				data = fmt.Sprint(resp.Error.Data)
			}
			return Classify(resp.Error.Code, resp.Error.Message, data)
		}
		if out == nil {
			return nil
		}
		if err := encoding.JSONiter.Unmarshal(resp.Result, out); err != nil {
			return &Error{Kind: KindRejected, Message: "malformed " + method + " result", Err: err}
		}
		return nil
	case <-c.done:
		return &Error{Kind: KindConnection, Message: method, Err: c.err}
	case <-ctx.Done():
		return &Error{Kind: KindTimeout, Message: method, Err: ctx.Err()}
	}
}

func (c *wsClient) AccountNonce(ctx context.Context, identity string) (uint64, error) {
	var result interface{}
	if err := c.call(ctx, MethodAccountNextIndex, []interface{}{identity}, &result); err != nil {
		return 0, err
	}
	n, ok := encoding.MaybeGetUint64(result)
	if !ok {
		return 0, &Error{Kind: KindRejected, Message: fmt.Sprintf("unexpected %s result %v", MethodAccountNextIndex, result)}
	}
	return n, nil
}

func (c *wsClient) SubmitCall(ctx context.Context, call Call, signer *Signer, nonce uint64) (string, error) {
	xt := "0x" + hex.EncodeToString(Extrinsic(call, signer, nonce))
	var hash string
	if err := c.call(ctx, MethodSubmitExtrinsic, []interface{}{xt}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (c *wsClient) Close() error {
	c.fail(errors.New("client closed"))
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
