package inputval

import (
	"strings"
	"testing"
)

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		// Valid URLs
		{"http://example.com", true},
		{"https://example.com/path?query=1", true},
		{"http://localhost:9000/avatars/a.png", true},

		// Valid with whitespace (trimmed)
		{"  https://example.com  ", true},

		// Invalid URLs
		{"", false},
		{"   ", false},
		{"ftp://example.com", false},
		{"example.com", false},
		{"//example.com", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := IsValidHTTPURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", true},
		{"  507f1f77bcf86cd799439011  ", true},
		{"", false},
		{"507f1f77bcf86cd79943901", false},  // too short
		{"507f1f77bcf86cd79943901g", false}, // invalid hex char
		{"not-a-valid-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := IsValidObjectID(tt.id)
			if got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"jane", true},
		{"jane_doe.99", true},
		{"ab", false},
		{"Jane", false}, // must already be lowercased
		{"has space", false},
		{strings.Repeat("a", 31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidUsername(tt.name); got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Text string `validate:"required,min=10,max=20" label:"Thread text"`
		Sort string `validate:"omitempty,oneof=latest oldest" label:"Sort"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
	}{
		{
			name:  "valid input",
			input: TestInput{Text: "long enough"},
		},
		{
			name:       "missing text",
			input:      TestInput{},
			wantErrors: true,
			wantFirst:  "Thread text is required.",
		},
		{
			name:       "text too short",
			input:      TestInput{Text: "short"},
			wantErrors: true,
			wantFirst:  "Thread text must be at least 10 characters.",
		},
		{
			name:       "text too long",
			input:      TestInput{Text: strings.Repeat("x", 21)},
			wantErrors: true,
			wantFirst:  "Thread text must be at most 20 characters.",
		},
		{
			name:       "bad sort",
			input:      TestInput{Text: "long enough", Sort: "popular"},
			wantErrors: true,
			wantFirst:  "Sort must be one of: latest oldest.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Errorf("Validate() HasErrors = %v, want %v", result.HasErrors(), tt.wantErrors)
			}

			if tt.wantErrors && result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_CountsRunes(t *testing.T) {
	type TestInput struct {
		Text string `validate:"min=10,max=10" label:"Text"`
	}
	// ten multi-byte characters
	if r := Validate(TestInput{Text: strings.Repeat("é", 10)}); r.HasErrors() {
		t.Errorf("expected 10 runes to pass, got %s", r.All())
	}
}

func TestResult_All(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		r := &Result{}
		if r.All() != "" {
			t.Errorf("All() = %q, want empty", r.All())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		r := &Result{
			Errors: []FieldError{
				{Message: "Error 1"},
				{Message: "Error 2"},
			},
		}
		want := "Error 1; Error 2"
		if r.All() != want {
			t.Errorf("All() = %q, want %q", r.All(), want)
		}
	})
}

func TestValidate_CustomRules(t *testing.T) {
	type URLInput struct {
		URL string `validate:"required,httpurl" label:"Image URL"`
	}
	type IDInput struct {
		ID string `validate:"required,objectid" label:"Thread ID"`
	}

	if r := Validate(URLInput{URL: "https://example.com/a.png"}); r.HasErrors() {
		t.Errorf("Validate(valid URL) has errors: %v", r.Errors)
	}
	if r := Validate(URLInput{URL: "not-a-url"}); !r.HasErrors() {
		t.Error("Validate(invalid URL) should have errors")
	}
	if r := Validate(IDInput{ID: "507f1f77bcf86cd799439011"}); r.HasErrors() {
		t.Errorf("Validate(valid ID) has errors: %v", r.Errors)
	}
	if r := Validate(IDInput{ID: "invalid-id"}); !r.HasErrors() {
		t.Error("Validate(invalid ID) should have errors")
	}
}
