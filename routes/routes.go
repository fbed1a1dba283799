package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Aquilass/tcnr01/controllers"
)

// Register wires the storefront surface under /api/v1, mirroring the
// upstream paths the managers consume.
func Register(r *gin.Engine, sc *controllers.StorefrontController) {
	r.GET("/healthz", sc.Health)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", sc.Register)
			auth.POST("/login", sc.Login)
			auth.POST("/logout", sc.Logout)
			auth.GET("/me", sc.Me)
			auth.PUT("/me", sc.UpdateMe)
			auth.POST("/change-password", sc.ChangePassword)
			auth.GET("/session", sc.SessionInfo)
		}

		cart := api.Group("/cart")
		{
			cart.GET("", sc.GetCart)
			cart.DELETE("", sc.ClearCart)
			cart.POST("/items", sc.AddCartItem)
			cart.PUT("/items/:id", sc.UpdateCartItem)
			cart.DELETE("/items/:id", sc.RemoveCartItem)
			cart.GET("/drawer", sc.CartDrawer)
			cart.DELETE("/drawer", sc.CloseCartDrawer)
		}

		products := api.Group("/products")
		{
			products.GET("", sc.ListProducts)
			products.GET("/:slug", sc.GetProduct)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", sc.CreateOrder)
			orders.GET("", sc.ListOrders)
			orders.GET("/:id", sc.GetOrder)
		}

		wishlist := api.Group("/wishlist")
		{
			wishlist.GET("", sc.GetWishlist)
			wishlist.POST("", sc.AddWishlistItem)
			wishlist.DELETE("/:productId", sc.RemoveWishlistItem)
		}
	}
}
