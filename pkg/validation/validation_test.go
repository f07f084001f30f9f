package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "residency/pkg/domain-errors"
)

type profileInput struct {
	FullName string `validate:"required,notblank"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"omitempty,e164"`
	Country  string `validate:"required,iso3166_1_alpha2"`
}

func TestValidate(t *testing.T) {
	valid := profileInput{FullName: "Alice Example", Email: "alice@example.com", Phone: "+3725551234", Country: "EE"}
	require.NoError(t, Validate(valid))

	tests := []struct {
		name    string
		mutate  func(*profileInput)
		message string
	}{
		{"missing name", func(p *profileInput) { p.FullName = "" }, "full_name is required"},
		{"blank name", func(p *profileInput) { p.FullName = "   " }, "full_name must not be blank"},
		{"bad email", func(p *profileInput) { p.Email = "alice" }, "email must be a valid email"},
		{"bad phone", func(p *profileInput) { p.Phone = "555-1234" }, "phone must be an E.164 phone number"},
		{"bad country", func(p *profileInput) { p.Country = "XX" }, "country must be an ISO 3166-1 alpha-2 country code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := Validate(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}
