package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oleh-kl/TrainerAppBack/internal/config"
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/handlers"
	"github.com/oleh-kl/TrainerAppBack/internal/middleware"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
	"github.com/oleh-kl/TrainerAppBack/pkg/logger"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, log *logger.Logger) {
	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookRepo := repository.NewWebhookEventRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	var gateways []gateway.Gateway
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret))
	}
	if cfg.LiqPayPublicKey != "" && cfg.LiqPayPrivateKey != "" {
		gateways = append(gateways, gateway.NewLiqPayGateway(
			cfg.LiqPayPublicKey,
			cfg.LiqPayPrivateKey,
			cfg.FrontendURL+"/payments/result",
			cfg.BackendURL+"/api/v1/webhooks/liqpay",
			gateway.FixedRate{Rate: cfg.UAHPerUSD, AsOf: time.Now()},
			nil,
		))
	}

	availabilityService := services.NewAvailabilityService(availabilityRepo, sessionRepo)
	sessionService := services.NewSessionService(db, sessionRepo, bookingRepo, paymentRepo, userRepo, availabilityRepo)
	bookingService := services.NewBookingService(db, bookingRepo, sessionRepo)
	paymentService := services.NewPaymentService(
		db,
		gateways,
		paymentRepo,
		bookingRepo,
		sessionRepo,
		webhookRepo,
		userRepo,
		cfg.PlatformFeeRate,
		cfg.ReleaseClientOnFailedPayment,
		log,
	)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, log)
	paymentService.SetSubscriptionSyncer(subscriptionService)
	trainerSearchService := services.NewTrainerSearchService(userRepo, availabilityRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	trainerHandler := handlers.NewTrainerHandler(trainerSearchService, availabilityService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Gateway callbacks authenticate through their signatures, not JWT.
	webhooks := api.Group("/v1/webhooks")
	webhooks.Post("/stripe", webhookHandler.StripeWebhook)
	webhooks.Post("/liqpay", webhookHandler.LiqPayCallback)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	availability := protected.Group("/availability")
	availability.Post("", availabilityHandler.CreateSlot)
	availability.Get("", availabilityHandler.ListSlots)
	availability.Patch("/:id", availabilityHandler.UpdateSlot)
	availability.Delete("/:id", availabilityHandler.DeleteSlot)

	trainers := protected.Group("/trainers")
	trainers.Get("/search", trainerHandler.SearchTrainers)
	trainers.Get("/:id/slots", trainerHandler.GetTrainerSlots)

	sessions := protected.Group("/sessions")
	sessions.Post("", sessionHandler.CreateSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/stats", sessionHandler.SessionStats)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Patch("/:id", sessionHandler.UpdateSession)
	sessions.Delete("/:id", sessionHandler.DeleteSession)

	bookings := protected.Group("/bookings")
	bookings.Post("", bookingHandler.BookSession)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Post("/:id/confirm", bookingHandler.ConfirmBooking)
	bookings.Post("/:id/cancel", bookingHandler.CancelBooking)

	payments := protected.Group("/payments")
	payments.Post("/checkout", paymentHandler.CreateCheckout)
	payments.Post("/refund", paymentHandler.RefundPayment)
	payments.Get("", paymentHandler.PaymentHistory)
	payments.Get("/stats", paymentHandler.PaymentStats)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.Post("", subscriptionHandler.CreateSubscription)
	subscriptions.Get("/me", subscriptionHandler.GetMySubscription)
	subscriptions.Post("/cancel", subscriptionHandler.CancelSubscription)
}
