package internal

import (
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
)

type Config struct {
	Debug             bool                 `help:"Enable debug logging (all categories)"`
	Endpoint          string               `name:"endpoint" alias:"url" help:"Ledger endpoint for replay (default: the endpoint each proof was recorded with)"`
	Limit             int                  `name:"limit" default:"50" help:"Maximum records listed or replayed"`
	LogFile           string               `name:"log-file" help:"Log output file path (logs to both stdout and file when set)"`
	LogFilter         []string             `name:"log-filter" default:"startup,submit,ledger,pending,replay" help:"Log category filter (comma-separated)"`
	MetricsListen     string               `name:"metrics-listen" default:"none" help:"Metrics endpoint address during replay ('none' to disable)"`
	PendingDir        string               `name:"pending-dir" alias:"pending-path" help:"Directory of the pending proof log"`
	ReplayBurst       int                  `name:"replay-burst" default:"1" help:"Submissions allowed in a burst during replay"`
	ReplayConcurrency int                  `name:"replay-concurrency" default:"1" help:"Submissions in flight during replay"`
	ReplayRate        float64              `name:"replay-rate" default:"2" help:"Submissions per second during replay (0 = unlimited)"`
	RPCTimeout        time.Duration        `name:"rpc-timeout" default:"10s" help:"Timeout for a single ledger RPC"`
	SignerSeed        string               `name:"signer-seed" alias:"signer" help:"Signing seed for replay ('//Name' or 0x-prefixed hex)"`
	StatusAddr        string               `name:"status-addr" default:"localhost:9100" help:"metrics-listen address of a running libbridge, for the status command"`
	Breaker           ledger.BreakerConfig `section:"breaker"`
}

func (c *Config) ApplyLogging() error {
	logger.RegisterCategories("startup", "submit", "nonce", "ledger", "pending", "replay", "debug-nonce")
	if c.Debug {
		logger.SetCategoryFilter(nil)
		logger.SetMinLevel(logger.LevelDebug)
	} else {
		logger.SetCategoryFilter(c.LogFilter)
	}
	if c.LogFile != "" {
		return logger.SetLogFile(c.LogFile)
	}
	return nil
}
