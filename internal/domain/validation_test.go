package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValidator_ValidateEmail(t *testing.T) {
	v := NewEmailValidator()

	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{"Valid email", "test@example.com", nil},
		{"Valid email with subdomain", "user@mail.example.com", nil},
		{"Valid email with dots", "user.name@example.com", nil},
		{"Valid email with plus", "user+tag@example.com", nil},
		{"Single char local part", "a@x.com", nil},
		{"Invalid - no @", "testexample.com", ErrMalformedAddress},
		{"Invalid - no domain", "test@", ErrMalformedAddress},
		{"Invalid - no local part", "@example.com", ErrMalformedAddress},
		{"Invalid - multiple @", "test@@example.com", ErrMalformedAddress},
		{"Invalid - spaces", "te st@example.com", ErrInvalidLocalPart},
		{"Invalid - invalid characters", "test$@example.com", ErrInvalidLocalPart},
		{"Invalid - consecutive dots", "a..b@example.com", ErrInvalidLocalPart},
		{"Invalid - bad domain", "user@-example.com", ErrInvalidDomain},
		{"Invalid - local part too long", strings.Repeat("a", 65) + "@x.com", ErrLocalPartTooLong},
		{"Invalid - email too long", "a@" + strings.Repeat("b", 253), ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateEmail(tt.email)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
