package builtin

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits for the output preview attached to executor log lines.
const (
	PreviewMaxLines = 5
	PreviewMaxBytes = 512
)

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%dB", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
	}
}

// Preview returns the head of output: at most maxLines lines and maxBytes
// bytes, never splitting a UTF-8 sequence. truncated reports whether
// anything was cut.
func Preview(output string, maxLines, maxBytes int) (head string, truncated bool) {
	if output == "" {
		return "", false
	}
	lines := strings.SplitN(output, "\n", maxLines+1)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	head = strings.Join(lines, "\n")
	if len(head) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(head[cut]) {
			cut--
		}
		head = head[:cut]
		truncated = true
	}
	return head, truncated
}
