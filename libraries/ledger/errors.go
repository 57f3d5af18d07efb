package ledger

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindConnection Kind = iota + 1
	KindSequenceTooLow
	KindRejected
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindSequenceTooLow:
		return "sequence too low"
	case KindRejected:
		return "rejected"
	case KindTimeout:
		return "timeout"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var ErrWrongSigningSeed = errors.New("wrong signing seed")

// Error is a failure reported by, or while talking to, the ledger node.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("ledger error (")
	b.WriteString(e.Kind.String())
	b.WriteString(")")
	if e.Code != 0 {
		fmt.Fprintf(&b, " code %d", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func IsSequenceTooLow(err error) bool {
	return KindOf(err) == KindSequenceTooLow
}

func IsConnection(err error) bool {
	return KindOf(err) == KindConnection
}

// IsTimeout reports a call the node accepted but never answered.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

const (
	codeInvalidTransaction = 1010
	codePriorityTooLow     = 1014
)

// Classify maps a JSON-RPC error object from the node to an Error. The
// transaction pool answers a reused nonce with 1014 "Priority is too low", or
// with 1010 and an "outdated"/"stale" reason when the nonce is already spent.
func Classify(code int, message, data string) *Error {
	kind := KindRejected
	text := strings.ToLower(message + " " + data)
	switch {
	case code == codePriorityTooLow, strings.Contains(text, "priority is too low"):
		kind = KindSequenceTooLow
	case code == codeInvalidTransaction && (strings.Contains(text, "outdated") || strings.Contains(text, "stale")):
		kind = KindSequenceTooLow
	}
	msg := message
	if data != "" {
		msg += ": " + data
	}
	return &Error{Kind: kind, Code: code, Message: msg}
}
