// Command libbridge builds the relay as a C shared library:
//
//	go build -buildmode=c-shared -o libbridge.so ./services/bridgeffi/cmd/libbridge
//
// bridge.h declares the exported functions for C and C++ callers.
package main

/*
#include <stdlib.h>
#include "bridge_types.h"
*/
import "C"

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/config"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/enforce"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ffi"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/relay"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/response"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/server"
	"github.com/bifrost-finance/bifrost-eos-relay/services/bridgeffi/internal"
)

var Version = "dev"

type instance struct {
	runtime *relay.Runtime
	metrics *http.Server
}

var (
	current atomic.Pointer[instance]
	initMu  sync.Mutex
)

func init() {
	enforce.CheckCompiler()
}

func main() {}

func start(path string) (*instance, error) {
	cfg := &internal.Config{}
	if err := config.LoadFile(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	logger.Printf("startup", "libbridge %s starting (config %q)", Version, path)

	rt, err := relay.Start(cfg.PendingDir, cfg.RPCTimeout, cfg.Breaker)
	if err != nil {
		return nil, err
	}
	inst := &instance{runtime: rt}
	if cfg.MetricsListen != "none" && cfg.MetricsListen != "" {
		if inst.metrics, err = server.Serve(cfg.MetricsListen, server.Handler(rt.Status)); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return inst, nil
}

// startOnce starts the relay unless it is already running. The bool reports
// whether this call started it.
func startOnce(path string) (*instance, bool, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if inst := current.Load(); inst != nil {
		return inst, false, nil
	}
	inst, err := start(path)
	if err != nil {
		return nil, false, err
	}
	current.Store(inst)
	return inst, true, nil
}

func running() (*instance, error) {
	if inst := current.Load(); inst != nil {
		return inst, nil
	}
	inst, _, err := startOnce("")
	return inst, err
}

//export bridge_init
func bridge_init(configPath *C.char) C.int {
	var started bool
	err := enforce.Guard(func() (err error) {
		var path string
		if configPath != nil {
			if path, err = ffi.DecodeCString("config_path", unsafe.Pointer(configPath)); err != nil {
				return err
			}
		}
		_, started, err = startOnce(path)
		return err
	})
	switch {
	case err != nil:
		logger.Error("bridge_init: %v", err)
		return -1
	case !started:
		return 1
	}
	return 0
}

// call runs fn against the running relay, starting it with defaults first if
// needed, and hands the result to C.
func call(fn func(r *relay.Relay) response.Response) *C.bridge_response {
	var resp response.Response
	err := enforce.Guard(func() error {
		inst, err := running()
		if err != nil {
			return err
		}
		resp = fn(inst.runtime.Relay)
		return nil
	})
	switch {
	case errors.Is(err, enforce.ErrPanic):
		resp = response.UnknownError()
	case err != nil:
		resp = response.Failure(err)
	}
	return newResponse(resp)
}

//export bridge_submit_schedule_change
func bridge_submit_schedule_change(url, signer *C.char,
	legacyScheduleHash *C.bridge_bytes, schedule *C.bridge_producer_authority_schedule,
	merkle *C.bridge_incremental_merkle,
	blockHeaders *C.bridge_signed_block_header, blockHeadersSize C.size_t,
	blockIDsList *C.bridge_checksum_list, blockIDsListSize C.size_t) *C.bridge_response {
	return call(func(r *relay.Relay) response.Response {
		return r.SubmitScheduleChange(context.Background(), &relay.ScheduleChangeArgs{
			URL:                unsafe.Pointer(url),
			Signer:             unsafe.Pointer(signer),
			LegacyScheduleHash: (*ffi.Bytes)(unsafe.Pointer(legacyScheduleHash)),
			Schedule:           (*ffi.ProducerAuthoritySchedule)(unsafe.Pointer(schedule)),
			Merkle:             (*ffi.IncrementalMerkle)(unsafe.Pointer(merkle)),
			BlockHeaders:       unsafe.Pointer(blockHeaders),
			BlockHeadersSize:   uintptr(blockHeadersSize),
			BlockIDsList:       unsafe.Pointer(blockIDsList),
			BlockIDsListSize:   uintptr(blockIDsListSize),
		})
	})
}

//export bridge_submit_action_proof
func bridge_submit_action_proof(url, signer *C.char,
	action *C.bridge_action, actionReceipt *C.bridge_action_receipt,
	actionMerklePaths *C.bridge_checksum_list, merkle *C.bridge_incremental_merkle,
	blockHeaders *C.bridge_signed_block_header, blockHeadersSize C.size_t,
	blockIDsList *C.bridge_checksum_list, blockIDsListSize C.size_t,
	trxID *C.bridge_bytes) *C.bridge_response {
	return call(func(r *relay.Relay) response.Response {
		return r.SubmitActionProof(context.Background(), &relay.ActionProofArgs{
			URL:               unsafe.Pointer(url),
			Signer:            unsafe.Pointer(signer),
			Action:            (*ffi.Action)(unsafe.Pointer(action)),
			ActionReceipt:     (*ffi.ActionReceipt)(unsafe.Pointer(actionReceipt)),
			ActionMerklePaths: (*ffi.ChecksumList)(unsafe.Pointer(actionMerklePaths)),
			Merkle:            (*ffi.IncrementalMerkle)(unsafe.Pointer(merkle)),
			BlockHeaders:      unsafe.Pointer(blockHeaders),
			BlockHeadersSize:  uintptr(blockHeadersSize),
			BlockIDsList:      unsafe.Pointer(blockIDsList),
			BlockIDsListSize:  uintptr(blockIDsListSize),
			TrxID:             (*ffi.Bytes)(unsafe.Pointer(trxID)),
		})
	})
}

//export bridge_free_response
func bridge_free_response(resp *C.bridge_response) {
	if resp == nil {
		return
	}
	if resp.message != nil {
		C.free(unsafe.Pointer(resp.message))
	}
	C.free(unsafe.Pointer(resp))
}

// newResponse copies r into C memory owned by the caller.
func newResponse(r response.Response) *C.bridge_response {
	resp := (*C.bridge_response)(C.malloc(C.size_t(unsafe.Sizeof(C.bridge_response{}))))
	resp.success = C.bool(r.Success)
	resp.message = C.CString(r.Message)
	return resp
}
