package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	secret, err := GenerateSecureSecret()
	require.NoError(t, err)
	ti, err := NewTokenIssuerFromBase64(secret)
	require.NoError(t, err)
	return ti
}

func TestIssueAndValidate(t *testing.T) {
	ti := testIssuer(t)

	token, err := ti.Issue("lantern-keeper", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "Неверный формат JWT токена")

	claims, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "lantern-keeper", claims.Operator)
	assert.Equal(t, "lantern-keeper", claims.Subject)
}

func TestValidate_Rejects(t *testing.T) {
	ti := testIssuer(t)

	t.Run("истёкший токен", func(t *testing.T) {
		token, err := ti.Issue("op", -time.Minute)
		require.NoError(t, err)
		_, err = ti.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("чужой секрет", func(t *testing.T) {
		token, err := testIssuer(t).Issue("op", time.Hour)
		require.NoError(t, err)
		_, err = ti.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("мусор", func(t *testing.T) {
		_, err := ti.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("алгоритм none", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Operator: "op"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ti.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer_WeakSecret(t *testing.T) {
	_, err := NewTokenIssuer([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenIssuerFromBase64("***")
	assert.Error(t, err)
}
