package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixserv/config"
	"fixserv/cron"
	"fixserv/database"
	bookingRepoPkg "fixserv/database/repository/booking"
	providerRepoPkg "fixserv/database/repository/provider"
	walletRepoPkg "fixserv/database/repository/wallet"
	"fixserv/handlers"
	"fixserv/middleware"
	"fixserv/routes"
	"fixserv/services/booking"
	"fixserv/services/notification"
	"fixserv/services/payment"
	"fixserv/services/wallet"
	"fixserv/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	providerRepo := providerRepoPkg.NewMongoProviderRepo()
	walletRepo := walletRepoPkg.NewMongoWalletRepo()
	txRepo := walletRepoPkg.NewMongoTransactionRepo()
	requestRepo := walletRepoPkg.NewMongoRequestRepo()

	if err := bookingRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to create booking indexes: %v", err)
	}
	if err := providerRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to create provider indexes: %v", err)
	}

	// notification channels.
	dispatcher := &notification.Dispatcher{
		Presence: &notification.RedisPresence{Client: utils.GetPresenceClient()},
		Live:     &notification.LiveNotifier{Client: utils.GetPresenceClient()},
		Push:     &notification.PushNotifier{ProviderRepo: providerRepo},
		Logger:   logger,
	}

	// services.
	walletService := wallet.NewDefaultWalletService(
		walletRepo,
		txRepo,
		requestRepo,
		bookingRepo,
		dispatcher,
		logger,
		config.AppConfig.DefaultCashLimit,
	)

	scheduler := cron.NewAsynqWaveScheduler()
	defer scheduler.Close()

	bookingService := &booking.DefaultBookingService{
		Repo: bookingRepo,
		Dispatch: &booking.DefaultDispatchEngine{
			ProviderRepo: providerRepo,
			RadiusKm:     config.AppConfig.DispatchRadiusKm,
		},
		Wallet:    walletService,
		Notify:    dispatcher,
		Scheduler: scheduler,
		Logger:    logger,
		Attempts: &booking.RedisAttemptGuard{
			Client: utils.GetCacheClient(),
			TTL:    15 * time.Minute,
		},
		MaxCodeAttempts: config.AppConfig.MaxCodeAttempts,
		WaveSize:        config.AppConfig.DispatchWaveSize,
		WaveExpiry:      time.Duration(config.AppConfig.WaveExpiryMin) * time.Minute,
	}

	paymentService := payment.NewDefaultPaymentService(bookingRepo, logger)

	handlers.BookingService = bookingService
	handlers.WalletService = walletService
	handlers.PaymentService = paymentService

	// Background wave promotion.
	cron.InitDispatchWorker(bookingService)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetPresenceClient()},
		database.MongoClient,
	)

	routes.RegisterRoutes(router)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
