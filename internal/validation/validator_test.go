package validation

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "valid alphanumeric",
			id:        "chapter_12",
			wantValid: true,
		},
		{
			name:      "valid with hyphen",
			id:        "btn-harbour-map",
			wantValid: true,
		},
		{
			name:        "empty id",
			id:          "",
			wantValid:   false,
			wantMessage: "Value is required",
		},
		{
			name:        "whitespace only",
			id:          "   ",
			wantValid:   false,
			wantMessage: "Value is required",
		},
		{
			name:        "too long",
			id:          strings.Repeat("a", 65),
			wantValid:   false,
			wantMessage: "Value must not exceed 64 characters",
		},
		{
			name:      "exactly 64 chars",
			id:        strings.Repeat("a", 64),
			wantValid: true,
		},
		{
			name:        "contains slash",
			id:          "a/b",
			wantValid:   false,
			wantMessage: "Value must contain only alphanumeric characters, underscores, and hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateID("id", tt.id)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateID(%q).Valid = %v, want %v", tt.id, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors["id"] != tt.wantMessage {
				t.Errorf("ValidateID(%q) error = %q, want %q", tt.id, result.Errors["id"], tt.wantMessage)
			}
		})
	}
}

func TestValidateEnv(t *testing.T) {
	if r := ValidateEnv("prod"); !r.Valid {
		t.Errorf("prod should be valid: %v", r.Errors)
	}
	if r := ValidateEnv(" "); r.Valid || r.Errors["env"] != "Environment is required" {
		t.Errorf("blank env: %+v", r)
	}
	if r := ValidateEnv(strings.Repeat("e", 33)); r.Valid {
		t.Error("33-char env should be invalid")
	}
}

func TestValidateKind(t *testing.T) {
	for _, k := range []string{"button", "sub-chapter"} {
		if r := ValidateKind(k); !r.Valid {
			t.Errorf("%s should be valid", k)
		}
	}
	for _, k := range []string{"", "Button", "chapter"} {
		if r := ValidateKind(k); r.Valid {
			t.Errorf("%q should be invalid", k)
		}
	}
}

func TestValidateLink(t *testing.T) {
	tests := []struct {
		link      string
		wantValid bool
	}{
		{"", true},
		{"/chapters/3", true},
		{"https://example.com/map", true},
		{"http://example.com", true},
		{"//evil.example.com", false},
		{"javascript:alert(1)", false},
		{"https://", false},
		{"relative/path", false},
		{"/" + strings.Repeat("x", MaxLinkLength), false},
	}
	for _, tt := range tests {
		if r := ValidateLink(tt.link); r.Valid != tt.wantValid {
			t.Errorf("ValidateLink(%q).Valid = %v, want %v (%v)", tt.link, r.Valid, tt.wantValid, r.Errors)
		}
	}
}

func TestValidateConditions(t *testing.T) {
	if r := ValidateConditions(nil); !r.Valid {
		t.Errorf("absent conditions should be valid: %v", r.Errors)
	}
	if r := ValidateConditions([]byte(`[{"type":"sign-in"}]`)); !r.Valid {
		t.Errorf("sign-in should be valid: %v", r.Errors)
	}

	r := ValidateConditions([]byte(`[{"type":"stamp-required"}]`))
	if r.Valid {
		t.Fatal("missing stampId should be invalid")
	}
	if _, ok := r.Errors["unlockConditions[0].stampId"]; !ok {
		t.Errorf("expected stampId error, got %v", r.Errors)
	}

	big := []byte("[" + strings.Repeat(`{"type":"sign-in"},`, MaxConditionsSize/19+1) + `{"type":"sign-in"}]`)
	if r := ValidateConditions(big); r.Valid || r.Errors["unlockConditions"] == "" {
		t.Errorf("oversized list should be rejected: %v", r.Errors)
	}
}

func TestValidateItem(t *testing.T) {
	valid := ItemValidationParams{
		ID:         "btn-1",
		Env:        "prod",
		Kind:       "button",
		ChapterID:  "ch-1",
		Title:      "Harbour map",
		Link:       "/maps/harbour",
		Conditions: []byte(`[{"type":"sign-in"}]`),
	}
	if r := ValidateItem(valid); !r.Valid {
		t.Fatalf("expected valid item, got %v", r.Errors)
	}

	bad := ItemValidationParams{
		ID:         "",
		Env:        "prod",
		Kind:       "widget",
		ChapterID:  "ch 1",
		Title:      "",
		Position:   -1,
		Conditions: []byte(`{}`),
	}
	r := ValidateItem(bad)
	if r.Valid {
		t.Fatal("expected invalid item")
	}
	for _, field := range []string{"id", "kind", "chapterId", "title", "position", "unlockConditions"} {
		if _, ok := r.Errors[field]; !ok {
			t.Errorf("missing error for %s in %v", field, r.Errors)
		}
	}
	if len(r.Errors) != 6 {
		t.Errorf("expected 6 errors, got %v", r.Errors)
	}
}
