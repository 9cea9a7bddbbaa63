package api

import (
	"log"
	stdhttp "net/http"

	intconfig "taxibackend/internal/config"
	"taxibackend/internal/domain"
	"taxibackend/internal/http/handlers"
	"taxibackend/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, h handlers.Handler, tokens middleware.TokenParser) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	auth := middleware.Auth(tokens)
	admin := middleware.RequireRoles(domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/directions", h.GetDirections)

		api.POST("/auth/login", h.Login)

		users := api.Group("/users")
		users.POST("/signup", h.Signup)
		users.GET("/me", auth, h.Me)
		users.GET("/:id", auth, h.GetUser)
		users.GET("", auth, admin, h.ListUsers)
		users.POST("", auth, admin, h.CreateUser)
		users.PATCH("/:id", auth, admin, h.UpdateUser)
		users.DELETE("/:id", auth, admin, h.DeleteUser)

		drivers := api.Group("/drivers", auth, admin)
		drivers.GET("", h.ListDrivers)
		drivers.GET("/:id", h.GetDriver)
		drivers.POST("", h.CreateDriver)
		drivers.PATCH("/:id", h.UpdateDriver)
		drivers.DELETE("/:id", h.DeleteDriver)

		vehicles := api.Group("/vehicles", auth)
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/company", h.ListCompanyVehicles)
		vehicles.GET("/driver/:driver_id", h.ListDriverVehicles)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.POST("", admin, h.CreateVehicle)
		vehicles.PATCH("/:id", admin, h.UpdateVehicle)
		vehicles.DELETE("/:id", admin, h.DeleteVehicle)

		pricing := api.Group("/pricing")
		pricing.GET("/:category", h.GetPricing)
		pricing.GET("", auth, admin, h.ListPricing)
		pricing.POST("", auth, admin, h.CreatePricing)
		pricing.PATCH("/:category", auth, admin, h.UpdatePricing)
		pricing.DELETE("/:category", auth, admin, h.DeletePricing)

		mountBookings(api.Group("/bookings"), h, auth, admin)

		payments := api.Group("/payments")
		payments.POST("/webhook", h.StripeWebhook)
		payments.POST("/create-checkout-session", auth, h.CreateCheckoutSession)
		payments.GET("/booking/:booking_id", auth, h.GetBookingPayment)
	}

	return r
}

func mountBookings(g *gin.RouterGroup, h handlers.Handler, auth, admin gin.HandlerFunc) {
	g.POST("/estimate", h.EstimateFares)

	g.GET("/me", auth, h.ListMyBookings)
	g.POST("/me", auth, h.CreateMyBooking)
	g.GET("/complete", auth, admin, h.ListBookingsFull)
	g.GET("/by-driver/:driver_id", auth, admin, h.ListDriverBookings)

	g.GET("", auth, admin, h.ListBookings)
	g.POST("", auth, admin, h.CreateBookingAdmin)
	g.GET("/:id", auth, admin, h.GetBooking)
	g.PATCH("/:id", auth, admin, h.UpdateBooking)
	g.DELETE("/:id", auth, admin, h.DeleteBooking)

	g.GET("/:id/complete", auth, h.GetBookingFull)
	g.POST("/:id/cancel", auth, h.CancelBooking)
	g.GET("/:id/receipt", auth, h.BookingReceipt)
}
