package ledger

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)
	got, err := ParseAddress("  " + valid + "\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != valid {
		t.Fatalf("address mismatch: %s != %s", got, valid)
	}

	invalid := []string{
		"",
		strings.Repeat("ab", 33),
		"0x" + strings.Repeat("ab", 31),
		"0x" + strings.Repeat("zz", 32),
		"1x" + strings.Repeat("ab", 32),
	}
	for _, input := range invalid {
		if _, err := ParseAddress(input); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", input, err)
		}
	}
}

func TestParseAddressesFiltersInvalid(t *testing.T) {
	a := "0x" + strings.Repeat("01", 32)
	b := "0x" + strings.Repeat("02", 32)

	valid, rejected, err := ParseAddresses([]string{a, "0x123", "", b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 2 || valid[0] != a || valid[1] != b {
		t.Fatalf("valid mismatch: %v", valid)
	}
	if len(rejected) != 1 || rejected[0] != "0x123" {
		t.Fatalf("rejected mismatch: %v", rejected)
	}
}

func TestParseAddressesEmpty(t *testing.T) {
	if _, _, err := ParseAddresses(nil); !errors.Is(err, ErrNoAddresses) {
		t.Fatalf("expected ErrNoAddresses, got %v", err)
	}
	if _, _, err := ParseAddresses([]string{"0xnope"}); !errors.Is(err, ErrNoAddresses) {
		t.Fatalf("expected ErrNoAddresses, got %v", err)
	}
}
