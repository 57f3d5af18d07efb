package relay

import (
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/nonce"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/submit"
)

// Runtime owns a Relay together with the dispatcher and pending log it was
// built on.
type Runtime struct {
	Relay      *Relay
	Dispatcher *submit.Dispatcher
	Nonces     *nonce.Coordinator
	Store      *pending.Store
}

// Start wires a Relay to the WebSocket ledger client. An empty pendingDir
// runs without a pending log.
func Start(pendingDir string, rpcTimeout time.Duration, breaker ledger.BreakerConfig) (*Runtime, error) {
	rt := &Runtime{Nonces: nonce.NewCoordinator()}
	if pendingDir != "" {
		store, err := pending.Open(pendingDir)
		if err != nil {
			return nil, err
		}
		rt.Store = store
	}

	rt.Dispatcher = submit.NewDispatcher(ledger.NewWSDialer(rpcTimeout, breaker), rt.Nonces)
	if rt.Store != nil {
		rt.Relay = New(rt.Dispatcher, rt.Store)
	} else {
		rt.Relay = New(rt.Dispatcher, nil)
	}
	logger.Printf("startup", "relay ready (rpc-timeout %s, pending log %q)", rpcTimeout, pendingDir)
	return rt, nil
}

// Status is served on /status by the metrics listener.
func (rt *Runtime) Status() any {
	status := map[string]any{}
	if rt.Store != nil {
		counts, err := rt.Store.Counts()
		if err != nil {
			status["pending_error"] = err.Error()
		} else {
			status["pending"] = counts
		}
	}
	return status
}

func (rt *Runtime) Close() {
	rt.Dispatcher.Close()
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			logger.Warning("closing pending log: %v", err)
		}
	}
}
