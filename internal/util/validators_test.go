package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.domain.org"))

	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("no-at-sign"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail("user@domain"))
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, ValidatePassword("Abcdef1!"))

	errs := ValidatePassword("short")
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs, "Password must be at least 8 characters long")

	assert.Contains(t, ValidatePassword("alllowercase1!"), "Password must contain at least one uppercase letter")
	assert.Contains(t, ValidatePassword("ALLUPPERCASE1!"), "Password must contain at least one lowercase letter")
	assert.Contains(t, ValidatePassword("NoNumbers!"), "Password must contain at least one number")
	assert.Contains(t, ValidatePassword("NoSpecial1"), "Password must contain at least one special character")
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("<b>hello</b>"))
	assert.Equal(t, "alert(1)", SanitizeInput("<script>alert(1)</script>"))
	assert.Equal(t, "plain text", SanitizeInput("  plain text  "))
	assert.Equal(t, "", SanitizeInput(""))
}
