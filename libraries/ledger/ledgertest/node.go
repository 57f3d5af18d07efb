// Package ledgertest runs an in-process ledger node that speaks the JSON-RPC
// subset used by the relay, for tests.
package ledgertest

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"lukechampine.com/blake3"
	"nhooyr.io/websocket"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
)

type Submission struct {
	Identity string
	Nonce    uint64
	Call     ledger.Call
	Hash     string
}

type account struct {
	next uint64
	used map[uint64]bool
}

type rejection struct {
	code    int
	message string
}

// Node keeps a nonce per identity the way a transaction pool does: a nonce
// below the account's next index is outdated, a nonce already taken is a
// priority conflict, anything else is accepted.
type Node struct {
	srv *httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	submissions []Submission
	rejections  []rejection
	requests    map[string]int
	silent      bool
	conns       map[*websocket.Conn]struct{}
}

func NewNode() *Node {
	n := &Node{
		accounts: make(map[string]*account),
		requests: make(map[string]int),
		conns:    make(map[*websocket.Conn]struct{}),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	return n
}

func (n *Node) URL() string {
	return "ws://" + strings.TrimPrefix(n.srv.URL, "http://")
}

// Close drops every open connection and stops the listener.
func (n *Node) Close() {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.conns))
	for conn := range n.conns {
		conns = append(conns, conn)
	}
	n.mu.Unlock()
	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "node shutting down")
	}
	n.srv.Close()
}

func (n *Node) SetNonce(identity string, next uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.account(identity).next = next
}

// RejectNext makes the next submission fail with the given RPC error.
func (n *Node) RejectNext(code int, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejections = append(n.rejections, rejection{code: code, message: message})
}

// SetSilent stops the node from answering requests.
func (n *Node) SetSilent(silent bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.silent = silent
}

func (n *Node) Submissions() []Submission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Submission(nil), n.submissions...)
}

func (n *Node) Requests(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[method]
}

func (n *Node) account(identity string) *account {
	a, ok := n.accounts[identity]
	if !ok {
		a = &account{used: make(map[uint64]bool)}
		n.accounts[identity] = a
	}
	return a
}

type request struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	n.mu.Lock()
	n.conns[conn] = struct{}{}
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.conns, conn)
		n.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req request
		if err := encoding.JSONiter.Unmarshal(data, &req); err != nil {
			continue
		}
		resp, ok := n.handle(req)
		if !ok {
			continue
		}
		out, _ := encoding.JSONiter.Marshal(resp)
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

func (n *Node) handle(req request) (response, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.requests[req.Method]++
	if n.silent {
		return response{}, false
	}
	resp := response{JSONRPC: "2.0", ID: req.ID}

	var param string
	if len(req.Params) == 1 {
		encoding.JSONiter.Unmarshal(req.Params[0], &param)
	}

	switch req.Method {
	case ledger.MethodAccountNextIndex:
		resp.Result = n.account(param).next
	case ledger.MethodSubmitExtrinsic:
		if len(n.rejections) > 0 {
			rej := n.rejections[0]
			n.rejections = n.rejections[1:]
			resp.Error = &rpcError{Code: rej.code, Message: rej.message}
			break
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(param, "0x"))
		if err != nil {
			resp.Error = &rpcError{Code: 1002, Message: "Verification Error: bad hex"}
			break
		}
		identity, nonce, call, err := ledger.OpenExtrinsic(raw)
		if err != nil {
			resp.Error = &rpcError{Code: 1002, Message: "Verification Error: " + err.Error()}
			break
		}
		acct := n.account(identity)
		switch {
		case nonce < acct.next:
			resp.Error = &rpcError{Code: 1010, Message: "Invalid Transaction: Transaction is outdated"}
		case acct.used[nonce]:
			resp.Error = &rpcError{Code: 1014, Message: "Priority is too low: (0 vs 0)"}
		default:
			acct.used[nonce] = true
			for acct.used[acct.next] {
				acct.next++
			}
			sum := blake3.Sum256(raw)
			hash := "0x" + hex.EncodeToString(sum[:])
			n.submissions = append(n.submissions, Submission{Identity: identity, Nonce: nonce, Call: call, Hash: hash})
			resp.Result = hash
		}
	default:
		resp.Error = &rpcError{Code: -32601, Message: "Method not found"}
	}
	return resp, true
}
