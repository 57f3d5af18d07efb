package response

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLen  = 4096
	UnknownMessage = "unknown error"
)

// Response is what an entry point hands back across the C boundary. On
// success Message carries the transaction hash.
type Response struct {
	Success bool
	Message string
}

func Success(txHash string) Response {
	return Encode(true, txHash)
}

func Failure(err error) Response {
	if err == nil {
		return UnknownError()
	}
	return Encode(false, err.Error())
}

func UnknownError() Response {
	return Response{Success: false, Message: UnknownMessage}
}

// Encode never fails. A message the caller could not safely read back as a
// C string is replaced with UnknownMessage.
func Encode(success bool, message string) Response {
	switch {
	case !success && message == "",
		len(message) > MaxMessageLen,
		!utf8.ValidString(message),
		strings.IndexByte(message, 0) >= 0:
		return Response{Success: success, Message: UnknownMessage}
	}
	return Response{Success: success, Message: message}
}
