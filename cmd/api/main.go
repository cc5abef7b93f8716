package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bluewave/internal/database"
	"bluewave/internal/middleware"
	"bluewave/internal/modules/admin"
	"bluewave/internal/modules/auth"
	"bluewave/internal/modules/booking"
	"bluewave/internal/modules/catalog"
	"bluewave/internal/modules/feed"
	"bluewave/internal/modules/giftcard"
	"bluewave/internal/modules/ledger"
	"bluewave/internal/modules/loyalty"
	"bluewave/internal/modules/notification"
	"bluewave/internal/modules/payment"
	"bluewave/internal/modules/promo"
	jwtsvc "bluewave/internal/pkg/jwt"
	"bluewave/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	bookableRepo := repository.NewBookableRepository(db)
	ruleRepo := repository.NewPricingRuleRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	cashbackRepo := repository.NewCashbackRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(bookableRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	promoService := promo.NewService(promoRepo)
	giftCardService := giftcard.NewService(giftCardRepo)
	ledgerService := ledger.NewService(db, cashbackRepo)
	loyaltyService := loyalty.NewService(loyaltyRepo, bookingRepo)

	bookingService := booking.NewService(
		db,
		bookingRepo,
		bookableRepo,
		ruleRepo,
		promoRepo,
		promoService,
		giftCardService,
		ledgerService,
		loyaltyService,
	)

	notificationService := notification.NewService(notificationRepo)
	hub := feed.NewHub()
	defer hub.Close()

	bookingHandler := booking.NewHandler(bookingService, notificationService, hub)
	feedHandler := feed.NewHandler(hub, j)
	notificationHandler := notification.NewHandler(notificationService)

	paymentService := payment.NewService(paymentRepo, bookingService, bookingService, log.Printf)
	paymentHandler := payment.NewHandler(paymentService, log.Printf, notificationService, hub)

	adminService := admin.NewService(ruleRepo, promoRepo, giftCardRepo, loyaltyRepo, bookingRepo, ledgerService)
	adminHandler := admin.NewHandler(adminService, bookingService, notificationService)

	r := gin.Default()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)
		v1.GET("/ws/feed", feedHandler.HandleWebSocket)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			paymentHandler.RegisterProtectedRoutes(protected)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adminGroup)
			}
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
