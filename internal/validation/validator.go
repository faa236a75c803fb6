// Package validation provides validation rules for content items and request parameters.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TimurManjosov/odegate/internal/unlock"
)

const (
	// MaxIDLength is the maximum length for item, chapter, stamp and task ids
	MaxIDLength = 64
	// MaxEnvLength is the maximum length for environment names
	MaxEnvLength = 32
	// MaxTitleLength is the maximum length for titles and labels
	MaxTitleLength = 200
	// MaxLinkLength is the maximum length for item links
	MaxLinkLength = 2048
	// MaxConditionsSize is the maximum size of the condition list JSON in bytes
	MaxConditionsSize = 16 * 1024 // 16KB
)

// idPattern matches alphanumeric characters, underscores, and hyphens
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ItemValidationParams contains the parameters for validating a content item
type ItemValidationParams struct {
	ID         string
	Env        string
	Kind       string
	ChapterID  string
	Title      string
	Label      string
	Link       string
	Position   int
	Conditions []byte
}

// ValidateItem validates all item fields and returns a validation result
func ValidateItem(p ItemValidationParams) *ValidationResult {
	result := NewValidationResult()
	result.Merge(ValidateID("id", p.ID))
	result.Merge(ValidateEnv(p.Env))
	result.Merge(ValidateKind(p.Kind))
	result.Merge(ValidateID("chapterId", p.ChapterID))
	result.Merge(ValidateTitle("title", p.Title, true))
	result.Merge(ValidateTitle("label", p.Label, false))
	result.Merge(ValidateLink(p.Link))
	if p.Position < 0 {
		result.AddError("position", "Position must not be negative")
	}
	result.Merge(ValidateConditions(p.Conditions))
	return result
}

// ValidateID validates an identifier stored under field
func ValidateID(field, id string) *ValidationResult {
	result := NewValidationResult()
	id = strings.TrimSpace(id)

	if id == "" {
		result.AddError(field, "Value is required")
		return result
	}

	if utf8.RuneCountInString(id) > MaxIDLength {
		result.AddError(field, "Value must not exceed 64 characters")
		return result
	}

	if !idPattern.MatchString(id) {
		result.AddError(field, "Value must contain only alphanumeric characters, underscores, and hyphens")
	}
	return result
}

// ValidateEnv validates an environment name
func ValidateEnv(env string) *ValidationResult {
	result := NewValidationResult()
	env = strings.TrimSpace(env)

	if env == "" {
		result.AddError("env", "Environment is required")
		return result
	}

	if utf8.RuneCountInString(env) > MaxEnvLength {
		result.AddError("env", "Environment must not exceed 32 characters")
	}
	return result
}

// ValidateKind accepts "button" and "sub-chapter"
func ValidateKind(kind string) *ValidationResult {
	result := NewValidationResult()
	if kind != "button" && kind != "sub-chapter" {
		result.AddError("kind", "Kind must be 'button' or 'sub-chapter'")
	}
	return result
}

// ValidateTitle validates free text stored under field
func ValidateTitle(field, text string, required bool) *ValidationResult {
	result := NewValidationResult()

	if required && strings.TrimSpace(text) == "" {
		result.AddError(field, "Value is required")
		return result
	}
	if utf8.RuneCountInString(text) > MaxTitleLength {
		result.AddError(field, "Value must not exceed 200 characters")
	}
	return result
}

// ValidateLink accepts an empty link, an absolute path, or an http(s) URL
func ValidateLink(link string) *ValidationResult {
	result := NewValidationResult()
	if link == "" {
		return result
	}
	if len(link) > MaxLinkLength {
		result.AddError("link", "Link must not exceed 2048 characters")
		return result
	}

	u, err := url.Parse(link)
	switch {
	case err != nil:
		result.AddError("link", "Link must be a valid URL")
	case u.Scheme == "" && strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//"):
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			result.AddError("link", "Link must include a host")
		}
	default:
		result.AddError("link", "Link must be an absolute path or an http(s) URL")
	}
	return result
}

// ValidateConditions checks the size and shape of an unlock condition list
func ValidateConditions(raw []byte) *ValidationResult {
	result := NewValidationResult()

	if len(raw) > MaxConditionsSize {
		result.AddError("unlockConditions", "Unlock conditions must not exceed 16KB")
		return result
	}
	for field, msg := range unlock.Validate(raw) {
		result.AddError(field, msg)
	}
	return result
}
