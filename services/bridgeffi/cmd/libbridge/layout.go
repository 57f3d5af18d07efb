package main

/*
#include "bridge_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/ffi"
)

// Each pair fails to compile if the C and Go layouts differ in size.
var (
	_ [unsafe.Sizeof(C.bridge_bytes{}) - unsafe.Sizeof(ffi.Bytes{})]byte
	_ [unsafe.Sizeof(ffi.Bytes{}) - unsafe.Sizeof(C.bridge_bytes{})]byte

	_ [unsafe.Sizeof(C.bridge_checksum256{}) - unsafe.Sizeof(ffi.Checksum256{})]byte
	_ [unsafe.Sizeof(ffi.Checksum256{}) - unsafe.Sizeof(C.bridge_checksum256{})]byte

	_ [unsafe.Sizeof(C.bridge_checksum_list{}) - unsafe.Sizeof(ffi.ChecksumList{})]byte
	_ [unsafe.Sizeof(ffi.ChecksumList{}) - unsafe.Sizeof(C.bridge_checksum_list{})]byte

	_ [unsafe.Sizeof(C.bridge_permission_level{}) - unsafe.Sizeof(ffi.PermissionLevel{})]byte
	_ [unsafe.Sizeof(ffi.PermissionLevel{}) - unsafe.Sizeof(C.bridge_permission_level{})]byte

	_ [unsafe.Sizeof(C.bridge_action{}) - unsafe.Sizeof(ffi.Action{})]byte
	_ [unsafe.Sizeof(ffi.Action{}) - unsafe.Sizeof(C.bridge_action{})]byte

	_ [unsafe.Sizeof(C.bridge_auth_sequence{}) - unsafe.Sizeof(ffi.AuthSequence{})]byte
	_ [unsafe.Sizeof(ffi.AuthSequence{}) - unsafe.Sizeof(C.bridge_auth_sequence{})]byte

	_ [unsafe.Sizeof(C.bridge_action_receipt{}) - unsafe.Sizeof(ffi.ActionReceipt{})]byte
	_ [unsafe.Sizeof(ffi.ActionReceipt{}) - unsafe.Sizeof(C.bridge_action_receipt{})]byte

	_ [unsafe.Sizeof(C.bridge_incremental_merkle{}) - unsafe.Sizeof(ffi.IncrementalMerkle{})]byte
	_ [unsafe.Sizeof(ffi.IncrementalMerkle{}) - unsafe.Sizeof(C.bridge_incremental_merkle{})]byte

	_ [unsafe.Sizeof(C.bridge_producer_key{}) - unsafe.Sizeof(ffi.ProducerKey{})]byte
	_ [unsafe.Sizeof(ffi.ProducerKey{}) - unsafe.Sizeof(C.bridge_producer_key{})]byte

	_ [unsafe.Sizeof(C.bridge_producer_schedule{}) - unsafe.Sizeof(ffi.ProducerSchedule{})]byte
	_ [unsafe.Sizeof(ffi.ProducerSchedule{}) - unsafe.Sizeof(C.bridge_producer_schedule{})]byte

	_ [unsafe.Sizeof(C.bridge_key_weight{}) - unsafe.Sizeof(ffi.KeyWeight{})]byte
	_ [unsafe.Sizeof(ffi.KeyWeight{}) - unsafe.Sizeof(C.bridge_key_weight{})]byte

	_ [unsafe.Sizeof(C.bridge_producer_authority{}) - unsafe.Sizeof(ffi.ProducerAuthority{})]byte
	_ [unsafe.Sizeof(ffi.ProducerAuthority{}) - unsafe.Sizeof(C.bridge_producer_authority{})]byte

	_ [unsafe.Sizeof(C.bridge_producer_authority_schedule{}) - unsafe.Sizeof(ffi.ProducerAuthoritySchedule{})]byte
	_ [unsafe.Sizeof(ffi.ProducerAuthoritySchedule{}) - unsafe.Sizeof(C.bridge_producer_authority_schedule{})]byte

	_ [unsafe.Sizeof(C.bridge_extension{}) - unsafe.Sizeof(ffi.Extension{})]byte
	_ [unsafe.Sizeof(ffi.Extension{}) - unsafe.Sizeof(C.bridge_extension{})]byte

	_ [unsafe.Sizeof(C.bridge_signed_block_header{}) - unsafe.Sizeof(ffi.SignedBlockHeader{})]byte
	_ [unsafe.Sizeof(ffi.SignedBlockHeader{}) - unsafe.Sizeof(C.bridge_signed_block_header{})]byte
)
