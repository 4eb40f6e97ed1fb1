package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistEndpoints_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/wishlist"},
		{http.MethodPost, "/api/v1/wishlist"},
		{http.MethodDelete, "/api/v1/wishlist/p1"},
		{http.MethodGet, "/api/v1/wishlist/check/p1"},
	} {
		rec := env.doJSON(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestWishlistFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "customer")
	env.seedProduct(t, "p1", 450, 5)

	// Initially empty.
	rec := env.doJSON(t, http.MethodGet, "/api/v1/wishlist", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list wishlistResponse
	decodeBody(t, rec, &list)
	assert.True(t, list.Success)
	assert.Empty(t, list.Wishlist)

	// Add.
	rec = env.doJSON(t, http.MethodPost, "/api/v1/wishlist", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var status statusResponse
	decodeBody(t, rec, &status)
	assert.True(t, status.Success)

	// Listed with denormalized product data.
	rec = env.doJSON(t, http.MethodGet, "/api/v1/wishlist", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.Len(t, list.Wishlist, 1)
	assert.Equal(t, "p1", list.Wishlist[0].ProductID)
	assert.Equal(t, "Product p1", list.Wishlist[0].Name)
	assert.Equal(t, int64(450), list.Wishlist[0].Price)

	// Check reports membership.
	rec = env.doJSON(t, http.MethodGet, "/api/v1/wishlist/check/p1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var check wishlistCheckResponse
	decodeBody(t, rec, &check)
	assert.True(t, check.Success)
	assert.True(t, check.IsInWishlist)

	// Remove.
	rec = env.doJSON(t, http.MethodDelete, "/api/v1/wishlist/p1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/wishlist/check/p1", token, nil)
	decodeBody(t, rec, &check)
	assert.False(t, check.IsInWishlist)
}

func TestAddWishlistItem_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "customer")
	env.seedProduct(t, "p1", 450, 5)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/wishlist", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/wishlist", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

func TestAddWishlistItem_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "customer")

	rec := env.doJSON(t, http.MethodPost, "/api/v1/wishlist", token, map[string]any{"productId": "ghost"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveWishlistItem_Absent(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "customer")

	rec := env.doJSON(t, http.MethodDelete, "/api/v1/wishlist/p1", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
