package internal

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/relay"
)

type ReplayResult struct {
	Seq  uint64
	TxID string
	Err  error
}

// Replayer sends recorded proofs to the ledger again through the same
// dispatcher and nonce coordinator as live submissions.
type Replayer struct {
	relay       *relay.Relay
	signer      *ledger.Signer
	endpoint    string
	limiter     *rate.Limiter
	concurrency int
}

func NewReplayer(r *relay.Relay, signer *ledger.Signer, endpoint string, perSecond float64, burst, concurrency int) *Replayer {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Replayer{
		relay:       r,
		signer:      signer,
		endpoint:    endpoint,
		limiter:     rate.NewLimiter(limit, burst),
		concurrency: concurrency,
	}
}

// Replay resubmits records and returns one result per record, in order. A
// failed submission is reported in its result; only cancellation stops the
// run early.
func (r *Replayer) Replay(ctx context.Context, records []*pending.Record) ([]ReplayResult, error) {
	results := make([]ReplayResult, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, rec := range records {
		results[i].Seq = rec.Seq
		if rec.Identity != r.signer.Identity() {
			results[i].Err = fmt.Errorf("record #%d was signed by %s, not %s", rec.Seq, rec.Identity, r.signer.Identity())
			continue
		}
		g.Go(func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				results[i].Err = err
				return err
			}
			results[i].TxID, results[i].Err = r.relay.Resubmit(ctx, rec, r.endpoint, r.signer)
			if results[i].Err != nil {
				logger.Printf("replay", "#%d failed: %v", rec.Seq, results[i].Err)
			} else {
				logger.Printf("replay", "#%d submitted as %s", rec.Seq, results[i].TxID)
			}
			return nil
		})
	}
	return results, g.Wait()
}
