package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIssueAndValidate тестирует выпуск и проверку токена
func TestIssueAndValidate(t *testing.T) {
	tm, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue("admin", true)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT состоит из трёх частей")

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Operator)
	assert.True(t, claims.IsAdmin)
}

// TestValidateInvalid тестирует недействительные токены
func TestValidateInvalid(t *testing.T) {
	tm, err := NewTokenManager(GenerateSecureSecret(), time.Hour)
	require.NoError(t, err)

	for _, invalid := range []string{
		"invalid.token.here",
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	} {
		_, err := tm.Validate(invalid)
		assert.ErrorIs(t, err, ErrInvalidToken, invalid)
	}

	// Токен чужого ключа
	other, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("admin", true)
	require.NoError(t, err)
	_, err = tm.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestTokenExpires тестирует истечение срока
func TestTokenExpires(t *testing.T) {
	tm, err := NewTokenManager("", time.Minute)
	require.NoError(t, err)

	start := time.Now()
	tm.now = func() time.Time { return start }
	token, err := tm.Issue("admin", true)
	require.NoError(t, err)

	tm.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBadSecret(t *testing.T) {
	_, err := NewTokenManager("c2hvcnQ=", time.Hour)
	assert.ErrorIs(t, err, ErrBadSecret)
	_, err = NewTokenManager("%%%", time.Hour)
	assert.ErrorIs(t, err, ErrBadSecret)
}

func TestOperatorAuthenticate(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	op := Operator{Name: "admin", PasswordHash: hash}
	assert.True(t, op.Enabled())
	assert.True(t, op.Authenticate("admin", "s3cret!"))
	assert.False(t, op.Authenticate("admin", "wrong"))
	assert.False(t, op.Authenticate("root", "s3cret!"))

	assert.False(t, Operator{Name: "admin"}.Authenticate("admin", ""))
}
