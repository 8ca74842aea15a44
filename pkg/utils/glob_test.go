package utils

import "testing"

func TestMatchAny(t *testing.T) {
	patterns := []string{"**/*.md", "docs/*.txt"}
	tests := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"notes/2024/plan.md", true},
		{"NOTES/PLAN.MD", true},
		{"docs/a.txt", true},
		{"docs/deep/a.txt", false},
		{"a.txt", false},
		{"image.png", false},
	}
	for _, tt := range tests {
		if got := MatchAny(patterns, tt.path); got != tt.want {
			t.Errorf("MatchAny(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if !MatchAny(nil, "anything.bin") {
		t.Error("empty pattern list should match everything")
	}
}

func TestValidatePatterns(t *testing.T) {
	if err := ValidatePatterns([]string{"**/*.txt", "{a,b}/*.md"}); err != nil {
		t.Errorf("valid patterns rejected: %v", err)
	}
	if err := ValidatePatterns([]string{"[abc"}); err == nil {
		t.Error("expected error for unterminated class")
	}
}

func TestIsHidden(t *testing.T) {
	for name, want := range map[string]bool{".git": true, ".env": true, "notes": false, ".": false, "..": false} {
		if got := IsHidden(name); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", name, got, want)
		}
	}
}
