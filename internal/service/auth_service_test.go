package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payreview/internal/config"
	"payreview/internal/domain"
	"payreview/internal/service"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: 15 * time.Minute, Issuer: "payreview"}
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := service.NewAuthService(jwtConfig())
	tenantID := uuid.New()

	token, expiresAt, err := svc.IssueToken(tenantID, "client-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, "client-1", claims.Subject)
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	svc := service.NewAuthService(jwtConfig())

	t.Run("wrong_secret", func(t *testing.T) {
		other := jwtConfig()
		other.Secret = "other"
		token, _, err := service.NewAuthService(other).IssueToken(uuid.New(), "x")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		other := jwtConfig()
		other.Issuer = "someone-else"
		token, _, err := service.NewAuthService(other).IssueToken(uuid.New(), "x")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		other := jwtConfig()
		other.AccessTokenExpiry = -time.Minute
		token, _, err := service.NewAuthService(other).IssueToken(uuid.New(), "x")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong_audience", func(t *testing.T) {
		claims := &service.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "payreview",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Audience:  jwt.ClaimStrings{"refresh"},
			},
			TenantID: uuid.New(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("missing_tenant", func(t *testing.T) {
		token, _, err := svc.IssueToken(uuid.Nil, "x")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
