package ffi

import "unsafe"

// The structs below mirror the C declarations in bridge_types.h field for
// field. size_t is mirrored as uintptr, which is why the library refuses to
// start on anything but a 64-bit platform.

type Bytes struct {
	Data unsafe.Pointer
	Size uintptr
}

type Checksum256 struct {
	Hash [32]byte
}

type ChecksumList struct {
	IDs     unsafe.Pointer // *Checksum256
	IDsSize uintptr
}

type PermissionLevel struct {
	Actor      uint64
	Permission uint64
}

type Action struct {
	Account           uint64
	Name              uint64
	Authorization     unsafe.Pointer // *PermissionLevel
	AuthorizationSize uintptr
	Data              Bytes
}

type AuthSequence struct {
	Account  uint64
	Sequence uint64
}

type ActionReceipt struct {
	Receiver         uint64
	ActDigest        Bytes
	GlobalSequence   uint64
	RecvSequence     uint64
	AuthSequence     unsafe.Pointer // *AuthSequence
	AuthSequenceSize uintptr
	CodeSequence     uint32
	AbiSequence      uint32
}

type IncrementalMerkle struct {
	NodeCount       uint64
	ActiveNodes     unsafe.Pointer // *Checksum256
	ActiveNodesSize uintptr
}

type ProducerKey struct {
	ProducerName    uint64
	BlockSigningKey unsafe.Pointer // const char*
}

type ProducerSchedule struct {
	Version       uint32
	Producers     unsafe.Pointer // *ProducerKey
	ProducersSize uintptr
}

type KeyWeight struct {
	Key    unsafe.Pointer // const char*
	Weight uint16
}

type ProducerAuthority struct {
	ProducerName uint64
	Threshold    uint32
	Keys         unsafe.Pointer // *KeyWeight
	KeysSize     uintptr
}

type ProducerAuthoritySchedule struct {
	Version       uint32
	Producers     unsafe.Pointer // *ProducerAuthority
	ProducersSize uintptr
}

type Extension struct {
	Type uint16
	Data Bytes
}

type SignedBlockHeader struct {
	Timestamp            uint32
	Producer             uint64
	Confirmed            uint16
	Previous             Checksum256
	TransactionMroot     Checksum256
	ActionMroot          Checksum256
	ScheduleVersion      uint32
	NewProducers         unsafe.Pointer // *ProducerSchedule, nullable
	HeaderExtensions     unsafe.Pointer // *Extension
	HeaderExtensionsSize uintptr
	ProducerSignature    unsafe.Pointer // const char*
}
