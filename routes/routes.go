package routes

import (
	"github.com/gin-gonic/gin"

	"storefront/controllers"
	"storefront/middleware"
)

type Handlers struct {
	Auth     *controllers.AuthController
	Profile  *controllers.ProfileController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Health   *controllers.HealthController
}

func RegisterRoutes(r *gin.Engine, h Handlers, authn middleware.Authenticator) {
	r.GET("/health", h.Health.Check)

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)

		api.GET("/products", h.Products.List)
		api.GET("/products/:id", h.Products.Get)

		protected := api.Group("/")
		protected.Use(middleware.Auth(authn))
		{
			protected.POST("/auth/logout", h.Auth.Logout)

			protected.GET("/profile", h.Profile.Get)
			protected.PATCH("/profile", h.Profile.Update)

			protected.GET("/cart", h.Cart.Get)
			protected.DELETE("/cart", h.Cart.Clear)
			protected.POST("/cart/items", h.Cart.AddItem)
			protected.PATCH("/cart/items/:productId", h.Cart.UpdateItem)
			protected.DELETE("/cart/items/:productId", h.Cart.RemoveItem)

			protected.POST("/orders", h.Orders.Create)
			protected.GET("/orders", h.Orders.List)
			protected.GET("/orders/:id", h.Orders.Get)
			protected.DELETE("/orders/:id", h.Orders.Delete)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			{
				admin.POST("/products", h.Products.Create)
				admin.PATCH("/products/:id", h.Products.Update)
				admin.DELETE("/products/:id", h.Products.Delete)

				admin.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
			}
		}
	}
}

// NewRouter builds the engine with the standard middleware chain.
func NewRouter(h Handlers, authn middleware.Authenticator) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	RegisterRoutes(r, h, authn)
	return r
}
