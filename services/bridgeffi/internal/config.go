package internal

import (
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ledger"
)

type Config struct {
	Debug         bool                 `help:"Enable debug logging (all categories)"`
	LogFile       string               `name:"log-file" help:"Log output file path"`
	LogFilter     []string             `name:"log-filter" default:"startup,decode,submit,nonce,ledger,pending" help:"Log category filter (comma-separated)"`
	LogStdout     bool                 `name:"log-stdout" default:"false" help:"Mirror the log file to the host's stdout"`
	MetricsListen string               `name:"metrics-listen" default:"none" help:"Metrics endpoint address (e.g., 'localhost:9090' or '/path/to/metrics.sock')"`
	PendingDir    string               `name:"pending-dir" alias:"pending-path" help:"Directory of the pending proof log (unset disables it)"`
	RPCTimeout    time.Duration        `name:"rpc-timeout" default:"10s" help:"Timeout for a single ledger RPC"`
	Breaker       ledger.BreakerConfig `section:"breaker"`
}
