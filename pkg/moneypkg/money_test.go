package moneypkg

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "Integer", input: "150", want: 15000},
		{name: "TwoDecimals", input: "150.25", want: 15025},
		{name: "OneDecimal", input: "0.5", want: 50},
		{name: "TrailingZeros", input: "1.2000", want: 120},
		{name: "Negative", input: "-3.10", want: -310},
		{name: "TooManyDecimals", input: "1.005", wantErr: ErrTooManyDecimals},
		{name: "NotANumber", input: "ten", wantErr: ErrInvalidAmount},
		{name: "Empty", input: "", wantErr: ErrInvalidAmount},
		{name: "Overflow", input: "100000000000000000000", wantErr: ErrOutOfRange},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Parse(%q) returned error %v, want %v", tc.input, err, tc.wantErr)
			}

			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		minor int64
		want  string
	}{
		{minor: 0, want: "0.00"},
		{minor: 5, want: "0.05"},
		{minor: 15025, want: "150.25"},
		{minor: -310, want: "-3.10"},
	}

	for _, tc := range testCases {
		if got := Format(tc.minor); got != tc.want {
			t.Errorf("Format(%v) = %v, want %v", tc.minor, got, tc.want)
		}

		back, err := Parse(tc.want)
		if err != nil || back != tc.minor {
			t.Errorf("Parse(Format(%v)) = %v, %v, want %v", tc.minor, back, err, tc.minor)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]bool{
		"10":    true,
		"0.01":  true,
		"0":     false,
		"-1":    false,
		"0.001": false,
		"abc":   false,
	} {
		if got := Valid(input); got != want {
			t.Errorf("Valid(%q) = %v, want %v", input, got, want)
		}
	}
}
