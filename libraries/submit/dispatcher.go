package submit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/nonce"
)

type NonceAllocator interface {
	Acquire(ctx context.Context, src nonce.Source, identity string) (uint64, error)
	Resync(ctx context.Context, src nonce.Source, identity string) error
}

// Dispatcher submits calls to ledger endpoints. It keeps one client per
// endpoint and retries a submission exactly once when the ledger says the
// nonce was already used.
type Dispatcher struct {
	dialer ledger.Dialer
	nonces NonceAllocator

	mu      sync.Mutex
	clients map[string]ledger.Client
}

func NewDispatcher(dialer ledger.Dialer, nonces NonceAllocator) *Dispatcher {
	return &Dispatcher{
		dialer:  dialer,
		nonces:  nonces,
		clients: make(map[string]ledger.Client),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, signer *ledger.Signer, call ledger.Call) (string, error) {
	start := time.Now()
	hash, err := d.dispatch(ctx, endpoint, signer, call)
	SubmissionDuration.WithLabelValues(call.Function).Observe(time.Since(start).Seconds())
	SubmissionsTotal.WithLabelValues(call.Function, resultLabel(err)).Inc()
	return hash, err
}

func (d *Dispatcher) dispatch(ctx context.Context, endpoint string, signer *ledger.Signer, call ledger.Call) (string, error) {
	client, err := d.client(ctx, endpoint)
	if err != nil {
		return "", err
	}
	identity := signer.Identity()

	hash, err := d.submitOnce(ctx, client, signer, call)
	if ledger.IsSequenceTooLow(err) {
		logger.Printf("submit", "%s for %s rejected as sequence too low, resyncing: %v", call, identity, err)
		RetriesTotal.WithLabelValues(call.Function).Inc()
		NonceResyncs.Inc()
		if err = d.nonces.Resync(ctx, client, identity); err == nil {
			hash, err = d.submitOnce(ctx, client, signer, call)
		}
	}
	if err != nil {
		if ledger.IsConnection(err) || ledger.IsTimeout(err) {
			d.evict(endpoint, client)
		}
		return "", err
	}
	logger.Printf("submit", "%s accepted for %s: %s", call, identity, hash)
	return hash, nil
}

func (d *Dispatcher) submitOnce(ctx context.Context, client ledger.Client, signer *ledger.Signer, call ledger.Call) (string, error) {
	n, err := d.nonces.Acquire(ctx, client, signer.Identity())
	if err != nil {
		return "", err
	}
	logger.Printf("debug-submit", "%s with nonce %d", call, n)
	return client.SubmitCall(ctx, call, signer, n)
}

// client returns the cached client for endpoint, dialing without holding the
// lock. If two dials race the first one stored wins.
func (d *Dispatcher) client(ctx context.Context, endpoint string) (ledger.Client, error) {
	d.mu.Lock()
	c, ok := d.clients[endpoint]
	d.mu.Unlock()
	if ok {
		return c, nil
	}

	fresh, err := d.dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if c, ok = d.clients[endpoint]; !ok {
		d.clients[endpoint] = fresh
		LedgerClients.Set(float64(len(d.clients)))
	}
	d.mu.Unlock()

	if ok {
		fresh.Close()
		return c, nil
	}
	return fresh, nil
}

func (d *Dispatcher) evict(endpoint string, c ledger.Client) {
	d.mu.Lock()
	if d.clients[endpoint] == c {
		delete(d.clients, endpoint)
		LedgerClients.Set(float64(len(d.clients)))
	} else {
		c = nil
	}
	d.mu.Unlock()
	if c != nil {
		logger.Printf("ledger", "dropping connection to %s", endpoint)
		c.Close()
	}
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	clients := d.clients
	d.clients = make(map[string]ledger.Client)
	LedgerClients.Set(0)
	d.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := ledger.KindOf(err); kind != 0 {
		return strings.ReplaceAll(kind.String(), " ", "_")
	}
	return "error"
}
