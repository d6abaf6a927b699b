package amount

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"
)

func TestToAtomic(t *testing.T) {
	cases := []struct {
		in       string
		decimals int32
		want     string
	}{
		{"0.1", 18, "100000000000000000"},
		{"1000", 6, "1000000000"},
		{"1.23456789", 6, "1234567"},
		{"0.0000009", 6, "0"},
		{"1e-3", 6, "1000"},
		{"2.5E2", 6, "250000000"},
		{" 42 ", 0, "42"},
		{"0", 18, "0"},
	}

	for _, tc := range cases {
		got, err := ToAtomic(tc.in, tc.decimals)
		if err != nil {
			t.Fatalf("ToAtomic(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ToAtomic(%q, %d) = %s, want %s", tc.in, tc.decimals, got, tc.want)
		}
	}
}

func TestToAtomicInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "0x10", "-1"} {
		if _, err := ToAtomic(in, 6); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ToAtomic(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestToAtomicExponentBounds(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1e100000000", "", true},
		{"1e60", "", true},
		{"1e-100000000", "0", false},
		{"0e100000000", "0", false},
		{"123e-20", "1", false},
		{"1e59", "1" + strings.Repeat("0", 77), false},
	}

	for _, tc := range cases {
		got, err := ToAtomic(tc.in, 18)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("ToAtomic(%q) error = %v, want ErrInvalidAmount", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ToAtomic(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ToAtomic(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromAtomic(t *testing.T) {
	cases := []struct {
		in       *big.Int
		decimals int32
		want     string
	}{
		{big.NewInt(0), 18, "0"},
		{nil, 6, "0"},
		{big.NewInt(1500000), 6, "1.5"},
		{big.NewInt(1000000000), 6, "1000"},
		{big.NewInt(1), 6, "0.000001"},
		{big.NewInt(42), 0, "42"},
	}

	for _, tc := range cases {
		if got := FromAtomic(tc.in, tc.decimals); got != tc.want {
			t.Fatalf("FromAtomic(%v, %d) = %s, want %s", tc.in, tc.decimals, got, tc.want)
		}
	}
}

func TestRoundTripTruncates(t *testing.T) {
	cases := map[string]string{
		"1.2345678": "1.234567",
		"0.5":       "0.5",
		"10.000":    "10",
		"3e2":       "300",
	}
	for in, want := range cases {
		atomic, err := ToAtomic(in, 6)
		if err != nil {
			t.Fatalf("ToAtomic(%q): %v", in, err)
		}
		if got := FromAtomic(atomic, 6); got != want {
			t.Fatalf("round trip %q = %s, want %s", in, got, want)
		}
	}
}

func TestApplySlippage(t *testing.T) {
	if got := ApplySlippage(big.NewInt(1000000), 0.5); got.Int64() != 995000 {
		t.Fatalf("ApplySlippage = %s, want 995000", got)
	}
	if got := ApplySlippage(big.NewInt(999), 1); got.Int64() != 989 {
		t.Fatalf("ApplySlippage floor = %s, want 989", got)
	}
	if got := ApplySlippage(big.NewInt(1000), 0); got.Int64() != 1000 {
		t.Fatalf("ApplySlippage zero = %s, want 1000", got)
	}
	if got := ApplySlippage(big.NewInt(1000), 150); got.Sign() != 0 {
		t.Fatalf("ApplySlippage over 100%% = %s, want 0", got)
	}
}

func TestDeadline(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if got := Deadline(now); got != 1700001800 {
		t.Fatalf("Deadline = %d, want 1700001800", got)
	}
}
