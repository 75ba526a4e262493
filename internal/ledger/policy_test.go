package ledger

import (
	"reflect"
	"testing"
)

func TestPagePolicyOffsets(t *testing.T) {
	got, err := DefaultPagePolicy().Offsets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 round-trips, got %d", len(got))
	}
	if got[0] != 0 || got[19] != 1900 {
		t.Fatalf("offsets mismatch: first=%d last=%d", got[0], got[19])
	}
}

func TestPagePolicyOffsetsTrimLastPage(t *testing.T) {
	policy := PagePolicy{PageSize: 3, MaxTransactions: 7}
	got, err := policy.Offsets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("offsets mismatch: %v != %v", got, want)
	}
	if limit := policy.Limit(6); limit != 1 {
		t.Fatalf("last page limit should be 1, got %d", limit)
	}
}

func TestPagePolicyNext(t *testing.T) {
	policy := PagePolicy{PageSize: 100, MaxTransactions: 2000}
	tests := []struct {
		name     string
		offset   int
		pageLen  int
		wantNext int
		wantMore bool
	}{
		{"full page continues", 0, 100, 100, true},
		{"short page stops", 100, 42, 100, false},
		{"empty page stops", 300, 0, 300, false},
		{"cap reached stops", 1900, 100, 2000, false},
	}
	for _, tt := range tests {
		next, more := policy.Next(tt.offset, tt.pageLen)
		if next != tt.wantNext || more != tt.wantMore {
			t.Fatalf("%s: got (%d, %v), want (%d, %v)", tt.name, next, more, tt.wantNext, tt.wantMore)
		}
	}
}

func TestPagePolicyInvalid(t *testing.T) {
	if _, err := (PagePolicy{PageSize: 0, MaxTransactions: 10}).Offsets(); err == nil {
		t.Fatalf("expected error for zero page size")
	}
	if _, err := (PagePolicy{PageSize: 10, MaxTransactions: 0}).Offsets(); err == nil {
		t.Fatalf("expected error for zero cap")
	}
}
