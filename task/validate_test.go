package task

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateInput(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		in        Input
		wantField string // empty means valid
	}{
		{"valid minimal", Input{Title: "Do the thing"}, ""},
		{"valid full", Input{Title: "T", Description: "d", DueDate: &future, AssignedAgent: AgentClaudeCode}, ""},
		{"empty title", Input{Title: "   "}, "title"},
		{"long title", Input{Title: strings.Repeat("x", 201)}, "title"},
		{"title exactly 200", Input{Title: strings.Repeat("x", 200)}, ""},
		{"200 multibyte runes", Input{Title: strings.Repeat("漢", 200)}, ""},
		{"201 multibyte runes", Input{Title: strings.Repeat("漢", 201)}, "title"},
		{"multibyte description", Input{Title: "t", Description: strings.Repeat("字", 2000)}, ""},
		{"long description", Input{Title: "t", Description: strings.Repeat("x", 2001)}, "description"},
		{"past due date", Input{Title: "t", DueDate: &past}, "dueDate"},
		{"due date now is fine", Input{Title: "t", DueDate: &now}, ""},
		{"unknown agent", Input{Title: "t", AssignedAgent: "hal9000"}, "assignedAgent"},
		{"gemini agent", Input{Title: "t", AssignedAgent: AgentGeminiCLI}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.in, now)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateInput: %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateInput error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	empty := "  "
	long := strings.Repeat("x", 201)
	badAgent := Agent("hal9000")
	badStatus := Status("LIMBO")
	goodStatus := StatusCompleted

	if err := ValidateUpdate(Update{Status: &goodStatus}); err != nil {
		t.Errorf("valid update rejected: %v", err)
	}
	if err := ValidateUpdate(Update{Title: &empty}); err == nil {
		t.Error("empty title accepted")
	}
	if err := ValidateUpdate(Update{Title: &long}); err == nil {
		t.Error("overlong title accepted")
	}
	if err := ValidateUpdate(Update{AssignedAgent: &badAgent}); err == nil {
		t.Error("unknown agent accepted")
	}
	if err := ValidateUpdate(Update{Status: &badStatus}); err == nil {
		t.Error("unknown status accepted")
	}
}
