package appointment

import (
	"strconv"
	"testing"
)

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected ASCII digits, got %q", code)
			}
		}
		n, _ := strconv.Atoi(code)
		if n < 100000 || n > 999999 {
			t.Fatalf("out of range: %d", n)
		}
		if !ValidOTP(code) {
			t.Fatalf("generated code %q does not validate", code)
		}
	}
}

func TestGenerateOTP_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, _ := GenerateOTP()
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("expected codes to vary")
	}
}

func TestValidOTP(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"100000", true},
		{"999999", true},
		{"482913", true},
		{"099999", false},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidOTP(tt.code); got != tt.want {
			t.Errorf("ValidOTP(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
