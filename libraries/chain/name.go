package chain

import (
	"errors"
	"fmt"
)

// Name is an EOSIO account or action name packed into 64 bits.
type Name uint64

var ErrInvalidName = errors.New("invalid name")

func charToSymbol(c byte) uint64 {
	if c >= 'a' && c <= 'z' {
		return uint64((c - 'a') + 6)
	}
	if c >= '1' && c <= '5' {
		return uint64((c - '1') + 1)
	}
	return uint64(0)
}

func symbolToChar(s byte) byte {
	if s >= 6 && s <= 31 {
		return byte(s - 6 + 'a')
	}
	if s > 0 && s <= 5 {
		return byte(s + '1' - 1)
	}
	return byte('.')
}

func StringToName(str string) Name {
	name := uint64(0)
	i := 0
	for ; i < 12 && len(str) > i; i++ {
		name |= (charToSymbol(str[i]) & 0x1F) << (64 - 5*(i+1))
	}
	if i == 12 && len(str) > 12 {
		name |= charToSymbol(str[12]) & 0x0F
	}
	return Name(name)
}

// ParseName is StringToName with validation: at most 13 characters from
// [.1-5a-z], the 13th limited to [.1-5a-j].
func ParseName(str string) (Name, error) {
	if len(str) > 13 {
		return 0, fmt.Errorf("%w: %q is longer than 13 characters", ErrInvalidName, str)
	}
	for i := 0; i < len(str); i++ {
		c := str[i]
		valid := c == '.' || (c >= '1' && c <= '5') || (c >= 'a' && c <= 'z')
		if i == 12 {
			valid = c == '.' || (c >= '1' && c <= '5') || (c >= 'a' && c <= 'j')
		}
		if !valid {
			return 0, fmt.Errorf("%w: %q", ErrInvalidName, str)
		}
	}
	return StringToName(str), nil
}

func (n Name) String() string {
	buf := make([]byte, 0, 13)
	for i := 0; i < 12; i++ {
		shfname := uint64(n) >> (64 - 5*(i+1))
		buf = append(buf, symbolToChar(byte(shfname&0x1F)))
	}
	buf = append(buf, symbolToChar(byte(n&0x0F)))

	for len(buf) > 0 && buf[len(buf)-1] == '.' {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	v, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
