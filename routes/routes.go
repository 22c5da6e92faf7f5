package routes

import (
	"net/http"
	"time"

	"fixserv/handlers"
	"fixserv/middleware"
	"fixserv/models"
	"fixserv/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine) {
	api := r.Group("/api/bookings")
	{
		api.POST("", middleware.JWTAuthMiddleware(models.RoleCustomer), handlers.CreateBooking)
		api.GET("", middleware.JWTAuthMiddleware(), handlers.ListBookings)
		api.GET("/:id", middleware.JWTAuthMiddleware(), handlers.GetBooking)

		provider := api.Group("")
		provider.Use(middleware.JWTAuthMiddleware(models.RoleProvider))
		provider.POST("/:id/accept", handlers.AcceptBooking)
		provider.POST("/:id/reject", handlers.RejectBooking)
		provider.POST("/:id/assign", handlers.AssignWorker)

		performer := api.Group("")
		performer.Use(middleware.JWTAuthMiddleware(models.RoleProvider, models.RoleWorker))
		performer.POST("/:id/journey-start", handlers.StartJourney)
		performer.POST("/:id/verify-visit", handlers.VerifyVisit)
		performer.POST("/:id/start-work", handlers.StartWork)
		performer.POST("/:id/work-done", handlers.MarkWorkDone)
		performer.POST("/:id/collect-cash", handlers.CollectCash)

		customer := api.Group("")
		customer.Use(middleware.JWTAuthMiddleware(models.RoleCustomer))
		customer.POST("/:id/pay", handlers.CreatePaymentIntent)
		customer.POST("/:id/complete", handlers.CompleteOnline)
		customer.POST("/:id/cancel", handlers.CancelBooking)
	}
}

// RegisterWalletRoutes sets up the provider-facing ledger endpoints.
func RegisterWalletRoutes(r *gin.Engine) {
	api := r.Group("/api/wallet")
	{
		api.Use(middleware.JWTAuthMiddleware(models.RoleProvider))
		api.GET("", handlers.GetWallet)
		api.GET("/transactions", handlers.ListTransactions)
		api.POST("/settlements", handlers.CreateSettlementRequest)
		api.POST("/withdrawals", handlers.CreateWithdrawalRequest)
	}
}

// RegisterAdminRoutes sets up endpoints for operator decisions.
func RegisterAdminRoutes(r *gin.Engine) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.JWTAuthMiddleware(models.RoleAdmin))
		api.GET("/settlements", handlers.ListSettlements)
		api.POST("/settlements/:id/approve", handlers.ApproveSettlement)
		api.POST("/settlements/:id/reject", handlers.RejectSettlement)
		api.GET("/withdrawals", handlers.ListWithdrawals)
		api.POST("/withdrawals/:id/approve", handlers.ApproveWithdrawal)
		api.POST("/withdrawals/:id/reject", handlers.RejectWithdrawal)
		api.POST("/providers/:id/block", handlers.BlockProvider)
		api.POST("/providers/:id/unblock", handlers.UnblockProvider)
		api.PUT("/providers/:id/cash-limit", handlers.SetCashLimit)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r)
	RegisterWalletRoutes(r)
	RegisterAdminRoutes(r)
}
