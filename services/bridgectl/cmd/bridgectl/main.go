package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/config"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/relay"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/server"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/serviceclient"
	"github.com/bifrost-finance/bifrost-eos-relay/services/bridgectl/internal"
)

var Version = "dev"

const usage = `usage: bridgectl [flags] <command>

commands:
  list [status] [after]   list recorded proofs (status: pending, submitted, failed, all)
  show <seq>              print one record with its bundle
  replay [seq...]         resubmit the given records, or every failed one
  status                  print /status of a running libbridge (status-addr)
`

func main() {
	config.CheckVersion(Version)

	cfg := &internal.Config{}
	args, err := config.LoadArgs(cfg, os.Args[1:], &config.LoadOptions{DefaultConfig: "./bridgectl.ini"})
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		logger.Fatal("Config error: %v", err)
	}
	if err := cfg.ApplyLogging(); err != nil {
		logger.Fatal("Failed to open log file %s: %v", cfg.LogFile, err)
	}
	defer logger.Close()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		err = list(cfg, args[1:])
	case "show":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = withStore(cfg, func(store *pending.Store) error {
			return internal.Show(os.Stdout, store, args[1])
		})
	case "replay":
		err = replay(cfg, args[1:])
	case "status":
		err = status(cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("%s: %v", args[0], err)
	}
}

func withStore(cfg *internal.Config, fn func(store *pending.Store) error) error {
	if cfg.PendingDir == "" {
		return fmt.Errorf("pending-dir is not set")
	}
	store, err := pending.Open(cfg.PendingDir)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func list(cfg *internal.Config, args []string) error {
	var status pending.Status
	var after uint64
	var err error
	if len(args) > 0 {
		if status, err = internal.ParseStatus(args[0]); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if after, err = strconv.ParseUint(args[1], 10, 64); err != nil {
			return fmt.Errorf("invalid sequence number %q", args[1])
		}
	}
	return withStore(cfg, func(store *pending.Store) error {
		return internal.List(os.Stdout, store, status, after, cfg.Limit)
	})
}

func replay(cfg *internal.Config, args []string) error {
	if cfg.SignerSeed == "" {
		return fmt.Errorf("signer-seed is required for replay")
	}
	if cfg.PendingDir == "" {
		return fmt.Errorf("pending-dir is not set")
	}

	rt, err := relay.Start(cfg.PendingDir, cfg.RPCTimeout, cfg.Breaker)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.MetricsListen != "none" && cfg.MetricsListen != "" {
		srv, err := server.Serve(cfg.MetricsListen, server.Handler(rt.Status))
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	signer, err := rt.Relay.Signer(cfg.SignerSeed)
	if err != nil {
		return err
	}

	var records []*pending.Record
	if len(args) == 0 {
		if records, err = rt.Store.List(pending.StatusFailed, 0, cfg.Limit); err != nil {
			return err
		}
	}
	for _, arg := range args {
		seq, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence number %q", arg)
		}
		rec, err := rt.Store.Get(seq)
		if err != nil {
			return fmt.Errorf("#%d: %w", seq, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		logger.Printf("replay", "nothing to replay")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("replay", "replaying %d records as %s", len(records), signer.Identity())
	replayer := internal.NewReplayer(rt.Relay, signer, cfg.Endpoint, cfg.ReplayRate, cfg.ReplayBurst, cfg.ReplayConcurrency)
	results, err := replayer.Replay(ctx, records)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("#%d\tfailed\t%v\n", r.Seq, r.Err)
		} else {
			fmt.Printf("#%d\tsubmitted\t%s\n", r.Seq, r.TxID)
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d records failed", failed, len(results))
	}
	return nil
}

func status(cfg *internal.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RPCTimeout)
	defer cancel()

	var out map[string]any
	if err := serviceclient.New(cfg.StatusAddr, cfg.RPCTimeout).Get(ctx, "/status", &out); err != nil {
		return err
	}
	data, err := encoding.JSONiter.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", data)
	return nil
}
