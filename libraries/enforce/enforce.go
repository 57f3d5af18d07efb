package enforce

import (
	"errors"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
)

var ErrPanic = errors.New("recovered panic")

func ENFORCE(query interface{}, args ...interface{}) {
	switch t := query.(type) {
	case bool:
		if !t {
			logger.Printf("enforce", "ENFORCE: %v", args)
			panic(fmt.Sprint(args...))
		}
	case error:
		if t != nil {
			logger.Printf("enforce", "ENFORCE: %v", args)
			panic(t)
		}
	}
}

// CheckCompiler fails unless int is 64 bits wide. The C layouts mirror
// size_t as uintptr and rely on it.
func CheckCompiler() {
	myint := int(math.MaxInt64) // Shouldn't compile on a 32 bit system.
	myint64 := int64(math.MaxInt64)
	ENFORCE(uint64(myint) == uint64(myint64), "Must be on 64 bit system.")
}

// Guard runs fn and turns a panic into an error wrapping ErrPanic. Nothing
// may unwind across a C frame, so every exported entry point goes through it.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
