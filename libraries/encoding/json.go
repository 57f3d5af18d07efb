package encoding

import (
	"encoding/json"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var JSONiter = jsoniter.Config{
	EscapeHTML:              false,
	MarshalFloatWith6Digits: false,
	DisallowUnknownFields:   false,
	OnlyTaggedField:         false,
	ValidateJsonRawMessage:  false,
	CaseSensitive:           true,
	UseNumber:               true,
	SortMapKeys:             true,
}.Froze()

// MaybeGetUint64 accepts the shapes a JSON-RPC node uses for integers: a
// number, a decimal string, or a 0x-prefixed hex string.
func MaybeGetUint64(numberish interface{}) (uint64, bool) {
	switch v := numberish.(type) {
	case json.Number:
		n, err := strconv.ParseUint(string(v), 10, 64)
		return n, err == nil
	case string:
		base := 10
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			v, base = v[2:], 16
		}
		n, err := strconv.ParseUint(v, base, 64)
		return n, err == nil
	case uint64:
		return v, true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	}
	return 0, false
}
