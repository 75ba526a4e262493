package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	addressPrefix = "0x"
	addressLength = 66
	addressBytes  = 32
)

var (
	// ErrInvalidAddress is returned for malformed account addresses.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoAddresses is returned when no valid address was supplied.
	ErrNoAddresses = errors.New("no valid addresses provided")
)

// ParseAddress validates a 32-byte hex account address and returns it trimmed.
func ParseAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, addressPrefix) || len(input) != addressLength {
		return "", fmt.Errorf("%w: %q must start with %s and be %d characters long", ErrInvalidAddress, input, addressPrefix, addressLength)
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, input, err)
	}
	if len(data) != addressBytes {
		return "", fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, input, len(data))
	}
	return input, nil
}

// ParseAddresses keeps the valid addresses of inputs, in order, and returns
// the rejected ones separately. Blank entries are ignored.
func ParseAddresses(inputs []string) ([]string, []string, error) {
	valid := make([]string, 0, len(inputs))
	var rejected []string
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		addr, err := ParseAddress(input)
		if err != nil {
			rejected = append(rejected, input)
			continue
		}
		valid = append(valid, addr)
	}
	if len(valid) == 0 {
		return nil, rejected, ErrNoAddresses
	}
	return valid, rejected, nil
}
