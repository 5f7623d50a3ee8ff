package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

func TestProductAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.seedUser(t, "user@example.com", models.RoleUser)
	_, adminToken := s.seedUser(t, "admin@example.com", models.RoleAdmin)

	body := map[string]any{"name": "Mug", "price": 0, "stock": 4, "category": "kitchen"}

	w := s.do(t, http.MethodPost, "/api/products", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", adminToken, map[string]any{"name": "Mug", "category": "kitchen"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "price is required", message(t, w))

	w = s.do(t, http.MethodPost, "/api/products", adminToken, map[string]any{"name": "Mug", "price": -1, "category": "kitchen"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["product"].(map[string]any)["_id"].(string)

	w = s.do(t, http.MethodPatch, "/api/products/"+id, adminToken, map[string]any{"price": 12.5})
	require.Equal(t, http.StatusOK, w.Code)
	product := decode(t, w)["product"].(map[string]any)
	assert.Equal(t, 12.5, product["price"])
	assert.Equal(t, "Mug", product["name"])

	w = s.do(t, http.MethodPatch, "/api/products/"+id, adminToken, map[string]any{"stock": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductPublicRoutes(t *testing.T) {
	s := newTestServer(t)
	p := s.seedProduct(t, "Lamp", 20, 3)
	s.seedProduct(t, "Desk", 80, 1)

	w := s.do(t, http.MethodGet, "/api/products?limit=1&q=lam", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(1), page["totalProducts"])
	assert.Equal(t, float64(1), page["limit"])
	assert.Len(t, page["products"], 1)

	w = s.do(t, http.MethodGet, "/api/products/"+p.ID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lamp", decode(t, w)["product"].(map[string]any)["name"])

	w = s.do(t, http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/products/bad-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductListHugePage(t *testing.T) {
	s := newTestServer(t)
	s.seedProduct(t, "Lamp", 20, 3)

	w := s.do(t, http.MethodGet, "/api/products?page=9223372036854775807", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Empty(t, page["products"])
	assert.Equal(t, float64(1), page["totalProducts"])
}
