package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{
			name:  "plain address",
			email: "user@example.com",
			valid: true,
		},
		{
			name:  "subdomain",
			email: "user@mail.example.com",
			valid: true,
		},
		{
			name:  "missing at sign",
			email: "userexample.com",
			valid: false,
		},
		{
			name:  "missing domain dot",
			email: "user@example",
			valid: false,
		},
		{
			name:  "contains space",
			email: "us er@example.com",
			valid: false,
		},
		{
			name:  "empty string",
			email: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.valid {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	if IsValidUsername("") {
		t.Fatalf("empty username must be invalid")
	}
	if IsValidUsername("   ") {
		t.Fatalf("whitespace-only username must be invalid")
	}
	if !IsValidUsername("molina") {
		t.Fatalf("non-empty username must be valid")
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("12345") {
		t.Fatalf("password shorter than %d must be invalid", MinPasswordLength)
	}
	if !IsValidPassword("123456") {
		t.Fatalf("password of length %d must be valid", MinPasswordLength)
	}
}
