// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short enough", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello w…"},
		{"multibyte intact", "héllo wörld", 8, "héllo w…"},
		{"zero", "hello", 0, ""},
		{"one", "hello", 1, "h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth_DoubleWidth(t *testing.T) {
	// CJK characters occupy two terminal columns each.
	if got := TruncateWidth("你好世界", 10); got != "你好世界" {
		t.Errorf("got %q, want untouched", got)
	}
	got := TruncateWidth("你好世界", 5)
	if StringWidth(got) > 5 {
		t.Errorf("truncated width = %d, want <= 5 (%q)", StringWidth(got), got)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"single line", "single line"},
		{"  padded  ", "padded"},
		{"first\nsecond\nthird", "first"},
		{"  first \nsecond", "first"},
		{"\nleading newline", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FirstLine(tt.in); got != tt.want {
			t.Errorf("FirstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("héllo"); got != 5 {
		t.Errorf("RuneLen = %d, want 5", got)
	}
}
