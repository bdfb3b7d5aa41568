package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmazurov/storefront/internal/models"
)

func addressPayload(isDefault bool) map[string]any {
	return map[string]any{
		"full_name":     "Test User",
		"phone":         "9999999999",
		"address_line1": "42 Test Street",
		"city":          "Mumbai",
		"state":         "MH",
		"postal_code":   "400001",
		"is_default":    isDefault,
	}
}

func TestCreateAddress(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "test@example.com", "user", "password")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(false))
	asUser(c, user)
	require.NoError(t, env.Address.CreateAddress(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Address
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, user.ID, resp.UserID)
	require.Equal(t, "India", resp.Country)

	_, cBad := env.doJSONRequest(http.MethodPost, "/api/addresses", map[string]any{
		"full_name": "Test User",
	})
	asUser(cBad, user)
	he := httpError(t, env.Address.CreateAddress(cBad))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCreateAddressSingleDefault(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "test@example.com", "user", "password")

	_, c1 := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(true))
	asUser(c1, user)
	require.NoError(t, env.Address.CreateAddress(c1))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(true))
	asUser(c2, user)
	require.NoError(t, env.Address.CreateAddress(c2))

	var defaults int64
	require.NoError(t, env.DB.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", user.ID, true).
		Count(&defaults).Error)
	require.Equal(t, int64(1), defaults)
}

func TestGetMyAddresses(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "test@example.com", "user", "password")
	other := createUser(t, env, "other@example.com", "user", "password")

	_, c1 := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(false))
	asUser(c1, user)
	require.NoError(t, env.Address.CreateAddress(c1))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(true))
	asUser(c2, user)
	require.NoError(t, env.Address.CreateAddress(c2))

	_, cOther := env.doJSONRequest(http.MethodPost, "/api/addresses", addressPayload(false))
	asUser(cOther, other)
	require.NoError(t, env.Address.CreateAddress(cOther))

	rec, c := env.doJSONRequest(http.MethodGet, "/api/addresses", nil)
	asUser(c, user)
	require.NoError(t, env.Address.GetMyAddresses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var addresses []models.Address
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addresses))
	require.Len(t, addresses, 2)
	// the default address comes first
	require.True(t, addresses[0].IsDefault)
}
