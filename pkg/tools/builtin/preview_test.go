package builtin

import (
	"strings"
	"testing"
)

func TestFormatSize(t *testing.T) {
	cases := map[int]string{
		0:               "0B",
		1023:            "1023B",
		1024:            "1.0KB",
		1536:            "1.5KB",
		3 * 1024 * 1024: "3.0MB",
	}
	for n, want := range cases {
		if got := FormatSize(n); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestPreview_Short(t *testing.T) {
	head, cut := Preview("a\nb", 5, 100)
	if head != "a\nb" || cut {
		t.Errorf("got %q, %v", head, cut)
	}
	if head, cut := Preview("", 5, 100); head != "" || cut {
		t.Errorf("empty: got %q, %v", head, cut)
	}
}

func TestPreview_Lines(t *testing.T) {
	head, cut := Preview("1\n2\n3\n4", 2, 100)
	if head != "1\n2" || !cut {
		t.Errorf("got %q, %v", head, cut)
	}
}

func TestPreview_Bytes(t *testing.T) {
	head, cut := Preview(strings.Repeat("x", 50), 5, 10)
	if head != strings.Repeat("x", 10) || !cut {
		t.Errorf("got %q, %v", head, cut)
	}
}

func TestPreview_KeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a 3-byte limit must not split the second one.
	head, cut := Preview("éé", 5, 3)
	if head != "é" || !cut {
		t.Errorf("got %q, %v", head, cut)
	}
}

func TestPreview_ManyLines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100000; i++ {
		sb.WriteString("line\n")
	}
	head, cut := Preview(sb.String(), 3, 1024)
	if head != "line\nline\nline" || !cut {
		t.Errorf("got %q, %v", head, cut)
	}
}

func TestPreview_ExactlyMaxLines(t *testing.T) {
	head, cut := Preview("a\nb\nc", 3, 100)
	if head != "a\nb\nc" || cut {
		t.Errorf("got %q, %v", head, cut)
	}
}
