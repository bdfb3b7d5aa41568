package token

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/models"
)

func newService(t *testing.T) *TokenService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))
	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func issueRefresh(t *testing.T, svc *TokenService, userID uint, role string) string {
	raw, err := SignRefreshToken(userID, role, svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, raw, userID, role))
	return raw
}

func TestValidateRefresh(t *testing.T) {
	svc := newService(t)
	raw := issueRefresh(t, svc, 7, "user")

	claims, err := ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.NoError(t, err)
	require.Equal(t, float64(7), claims["sub"])
	require.Equal(t, "user", claims["role"])
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	svc := newService(t)

	// access tokens carry no typ claim and must not pass as refresh tokens
	raw, err := SignAccessToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)

	_, err = ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}

func TestValidateRefreshUnknownToken(t *testing.T) {
	svc := newService(t)
	raw, err := SignRefreshToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)

	// signed but never stored
	_, err = ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}

func TestRotateToken(t *testing.T) {
	svc := newService(t)
	raw := issueRefresh(t, svc, 7, "admin")

	access, refresh, claims, err := svc.RotateToken(raw)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEqual(t, raw, refresh)
	require.Equal(t, "admin", claims["role"])

	// the old token is revoked, replaying it fails
	var old models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", raw).First(&old).Error)
	require.True(t, old.Revoked)

	_, _, _, err = svc.RotateToken(raw)
	require.Error(t, err)

	// the new one keeps working
	_, _, _, err = svc.RotateToken(refresh)
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	svc := newService(t)
	raw := issueRefresh(t, svc, 7, "user")

	require.NoError(t, svc.Revoke(raw))

	_, err := ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}
