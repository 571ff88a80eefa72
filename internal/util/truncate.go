package util

import "fmt"

// DefaultLogMaxLen caps CRM response bodies echoed into error logs (1KB).
const DefaultLogMaxLen = 1024

// TruncateLog shortens s to maxLen bytes and notes the original size.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is TruncateLog for []byte with DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
