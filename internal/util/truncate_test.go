package util

import (
	"strings"
	"testing"
)

func TestTruncateLog(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "empty", input: "", maxLen: 10, want: ""},
		{name: "under limit", input: `{"status":"error"}`, maxLen: DefaultLogMaxLen, want: `{"status":"error"}`},
		{name: "at limit", input: "0123456789", maxLen: 10, want: "0123456789"},
		{name: "over limit", input: "0123456789abcdef", maxLen: 10, want: "0123456789... [truncated, 16 bytes total]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateLog(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateLog() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateBytes_KeepsPrefixOfLargeBody(t *testing.T) {
	body := []byte(strings.Repeat("x", 2*DefaultLogMaxLen))
	got := TruncateBytes(body)
	if !strings.HasPrefix(got, string(body[:DefaultLogMaxLen])) {
		t.Fatal("expected the first DefaultLogMaxLen bytes to be kept")
	}
	if !strings.HasSuffix(got, "[truncated, 2048 bytes total]") {
		t.Fatalf("unexpected suffix: %q", got[DefaultLogMaxLen:])
	}
}
