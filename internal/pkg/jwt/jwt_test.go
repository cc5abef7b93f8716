package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("test_secret_key_32_characters_min", time.Hour)

	token, err := svc.GenerateToken(42, "vendor")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "vendor", claims.Role)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := New("test_secret_key_32_characters_min", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := New("a_completely_different_secret_key", time.Hour)
		token, err := other.GenerateToken(1, "user")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := New("test_secret_key_32_characters_min", -time.Minute)
		token, err := short.GenerateToken(1, "user")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := Claims{
			UserID: 1,
			Role:   "user",
			RegisteredClaims: jwtlib.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).
			SignedString([]byte("test_secret_key_32_characters_min"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		claims := Claims{
			UserID: 1,
			Role:   "admin",
			RegisteredClaims: jwtlib.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).
			SignedString(jwtlib.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
