package task

import (
	"strings"
	"testing"
	"time"
)

func TestNewID_Shape(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewID("Fix the flaky login test", now)

	if !strings.HasPrefix(id, "fix-the-flaky-") {
		t.Errorf("id = %q, want prefix fix-the-flaky-", id)
	}
	if !strings.Contains(id, "20260314T092653") {
		t.Errorf("id = %q, want embedded timestamp 20260314T092653", id)
	}
	parts := strings.Split(id, "-")
	suffix := parts[len(parts)-1]
	if len(suffix) != 6 {
		t.Errorf("suffix = %q, want 6 characters", suffix)
	}
}

func TestNewID_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID("Same title every time", now)
		if seen[id] {
			t.Fatalf("duplicate id after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alpha bug", "alpha-bug"},
		{"Beta feature request backlog", "beta-feature-request"}, // first three words only
		{"Café menü überprüfen", "cafe-menu-uberprufen"},
		{"   spaces   everywhere   here  now ", "spaces-everywhere-here"},
		{"!!!", ""},
		{"C++ & Go!", "c-go"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in, 3); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewID_EmptySlugFallsBack(t *testing.T) {
	id := NewID("!!!", time.Now())
	if !strings.HasPrefix(id, "task-") {
		t.Errorf("id = %q, want task- prefix for unsluggable title", id)
	}
}
