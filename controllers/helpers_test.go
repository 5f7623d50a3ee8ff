package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/config"
	"storefront/controllers"
	"storefront/models"
	"storefront/routes"
	"storefront/services"
	"storefront/services/servicetest"
)

type testServer struct {
	router    *gin.Engine
	users     *servicetest.Users
	products  *servicetest.Products
	carts     *servicetest.Carts
	orders    *servicetest.Orders
	blacklist *servicetest.Blacklist
	tokens    *services.TokenIssuer
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		users:     servicetest.NewUsers(),
		products:  servicetest.NewProducts(),
		carts:     servicetest.NewCarts(),
		orders:    servicetest.NewOrders(),
		blacklist: servicetest.NewBlacklist(),
		tokens:    services.NewTokenIssuer("test-secret", time.Hour),
	}
	authSvc := services.NewAuthService(s.users, s.tokens, s.blacklist)
	authSvc.SetHashCost(bcrypt.MinCost)
	pricing := services.NewPricing(config.Pricing{DeliveryCharge: 50, DiscountPercent: 10})

	timeout := 5 * time.Second
	handlers := routes.Handlers{
		Auth:     controllers.NewAuthController(authSvc, timeout, false),
		Profile:  controllers.NewProfileController(services.NewProfileService(s.users), timeout),
		Products: controllers.NewProductController(services.NewProductService(s.products), timeout),
		Cart:     controllers.NewCartController(services.NewCartService(s.carts, s.products), timeout),
		Orders: controllers.NewOrderController(
			services.NewOrderService(s.orders, s.carts, s.products, s.users, &servicetest.Atomic{}, pricing),
			timeout,
		),
		Health: controllers.NewHealthController(map[string]controllers.Pinger{"mongo": okPinger{}}, time.Second),
	}
	s.router = routes.NewRouter(handlers, authSvc)
	return s
}

func (s *testServer) seedUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	u := &models.User{
		Name:    "User " + email,
		Email:   email,
		Role:    role,
		Phone:   "0170000000",
		Address: models.Address{Line1: "1 Main St", City: "Dhaka"},
	}
	require.NoError(t, s.users.Create(context.Background(), u))
	token, _, err := s.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) seedProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Category: "misc", Price: price, Stock: stock, CreatedAt: time.Now()}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decode(t, w)["message"].(string)
	return msg
}

