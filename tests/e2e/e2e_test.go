package e2e

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bluewave/internal/database"
	"bluewave/internal/domain"
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

const (
	gatewayPassword1 = "test-pass-one"
	gatewayPassword2 = "test-pass-two"
)

type testSuite struct {
	router   *gin.Engine
	db       *gorm.DB
	jwt      *jwtsvc.Service
	bookings *booking.Service
	ledger   *ledger.Service

	adminToken string
}

type apiResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *apiError              `json:"error,omitempty"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

var dbSeq int

func setupSuite(t *testing.T) *testSuite {
	t.Setenv("GATEWAY_MERCHANT_LOGIN", "bluewave-test")
	t.Setenv("GATEWAY_PASSWORD1", gatewayPassword1)
	t.Setenv("GATEWAY_PASSWORD2", gatewayPassword2)

	dbSeq++
	dsn := fmt.Sprintf("file:e2e_test_%d?mode=memory&cache=shared", dbSeq)
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

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

	j := jwtsvc.New("e2e_secret_key_32_characters_long", time.Hour)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(bookableRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	promoService := promo.NewService(promoRepo)
	giftCardService := giftcard.NewService(giftCardRepo)
	ledgerService := ledger.NewService(db, cashbackRepo)
	loyaltyService := loyalty.NewService(loyaltyRepo, bookingRepo)

	bookingService := booking.NewService(
		db, bookingRepo, bookableRepo, ruleRepo, promoRepo,
		promoService, giftCardService, ledgerService, loyaltyService,
	)

	notificationService := notification.NewService(notificationRepo)
	hub := feed.NewHub()
	t.Cleanup(hub.Close)

	bookingHandler := booking.NewHandler(bookingService, notificationService, hub)
	notificationHandler := notification.NewHandler(notificationService)

	paymentService := payment.NewService(paymentRepo, bookingService, bookingService, t.Logf)
	paymentHandler := payment.NewHandler(paymentService, t.Logf, notificationService, hub)

	adminService := admin.NewService(ruleRepo, promoRepo, giftCardRepo, loyaltyRepo, bookingRepo, ledgerService)
	adminHandler := admin.NewHandler(adminService, bookingService, notificationService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)

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

	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	adminUser := &domain.User{
		Email:        "admin@e2e.test",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Name:         "E2E Admin",
	}
	require.NoError(t, userRepo.Create(ctx, adminUser))

	adminToken, err := j.GenerateToken(adminUser.ID, string(domain.RoleAdmin))
	require.NoError(t, err)

	// One base tier so every quote gets a cashback percentage.
	require.NoError(t, loyaltyRepo.CreateTier(ctx, &domain.LoyaltyTier{
		Name:                "Crew",
		CashbackPercent:     decimal.NewFromInt(2),
		FreeCancellationHrs: 24,
	}))

	return &testSuite{
		router:     r,
		db:         db,
		jwt:        j,
		bookings:   bookingService,
		ledger:     ledgerService,
		adminToken: adminToken,
	}
}

func (s *testSuite) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
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

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

// registerAndLogin creates a user over the API and returns their token
// and id.
func (s *testSuite) registerAndLogin(t *testing.T, email string) (string, int64) {
	t.Helper()
	w := s.request(t, "POST", "/api/v1/auth/register", map[string]interface{}{
		"email":    email,
		"password": "Password123!",
		"name":     "E2E Guest",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.request(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    email,
		"password": "Password123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	token, _ := resp.Data["access_token"].(string)
	require.NotEmpty(t, token)
	user, _ := resp.Data["user"].(map[string]interface{})
	id, _ := user["id"].(float64)
	require.NotZero(t, id)
	return token, int64(id)
}

// seedTour inserts a bookable tour directly; catalog writes go through
// the repository, not the public API.
func (s *testSuite) seedTour(t *testing.T) int64 {
	t.Helper()
	bookables := repository.NewBookableRepository(s.db)
	tour := &domain.Tour{
		Name:          "Phi Phi Island Day Trip",
		Category:      "island_hopping",
		Capacity:      10,
		DurationHours: decimal.NewFromInt(6),
		BasePrice:     decimal.NewFromInt(1000),
		Active:        true,
	}
	require.NoError(t, bookables.CreateTour(context.Background(), tour))
	return tour.ID
}

func (s *testSuite) seedPerPersonAddOn(t *testing.T) int64 {
	t.Helper()
	bookables := repository.NewBookableRepository(s.db)
	addOn := &domain.AddOn{
		Name:      "Seafood Lunch",
		Pricing:   domain.AddOnPerPerson,
		UnitPrice: decimal.NewFromInt(200),
		Active:    true,
	}
	require.NoError(t, bookables.CreateAddOn(context.Background(), addOn))
	return addOn.ID
}

func resultSignature(outSum string, invID int64) string {
	sum := md5.Sum([]byte(outSum + ":" + strconv.FormatInt(invID, 10) + ":" + gatewayPassword2))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// gatewayCallback posts a form-encoded result notification the way the
// payment provider's server does.
func (s *testSuite) gatewayCallback(t *testing.T, outSum string, invID int64, signature string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("OutSum", outSum)
	form.Set("InvId", strconv.FormatInt(invID, 10))
	form.Set("SignatureValue", signature)

	req := httptest.NewRequest("POST", "/api/v1/payments/gateway/result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRegistrationAndAuth(t *testing.T) {
	suite := setupSuite(t)

	token, _ := suite.registerAndLogin(t, "guest@e2e.test")
	require.NotEmpty(t, token)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/auth/register", map[string]interface{}{
			"email":    "guest@e2e.test",
			"password": "Password123!",
			"name":     "Someone Else",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "guest@e2e.test",
			"password": "nope-nope-nope",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("protected route requires a token", func(t *testing.T) {
		w := suite.request(t, "GET", "/api/v1/bookings", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin routes reject regular users", func(t *testing.T) {
		w := suite.request(t, "GET", "/api/v1/admin/bookings", nil, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// TestBookingLifecycle drives the whole happy path over HTTP: admin
// sets up a rule and a promo code, a guest quotes and books, the
// payment gateway confirms payment, staff complete the trip.
func TestBookingLifecycle(t *testing.T) {
	suite := setupSuite(t)
	tourID := suite.seedTour(t)
	addOnID := suite.seedPerPersonAddOn(t)
	userToken, userID := suite.registerAndLogin(t, "guest@e2e.test")

	startTime := time.Now().UTC().AddDate(0, 0, 30).Truncate(time.Hour)
	endTime := startTime.Add(6 * time.Hour)

	t.Run("admin creates an early-bird rule", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/admin/pricing-rules", map[string]interface{}{
			"name":       "Early bird discount",
			"type":       "early_bird",
			"adjustment": "percent",
			"value":      "-10",
			"stackable":  true,
			"condition":  map[string]interface{}{"min_lead_days": 14},
		}, suite.adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("admin creates a promo code", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/admin/promo-codes", map[string]interface{}{
			"code":              "WELCOME10",
			"discount":          "percent",
			"value":             "10",
			"min_order_thb":     "1000",
			"max_discount_thb":  "500",
			"usage_limit":       100,
			"max_uses_per_user": 1,
			"valid_from":        time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
			"valid_until":       time.Now().AddDate(0, 6, 0).Format(time.RFC3339),
		}, suite.adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	quoteBody := map[string]interface{}{
		"bookable":   map[string]interface{}{"type": "tour", "id": tourID},
		"start_time": startTime.Format(time.RFC3339),
		"end_time":   endTime.Format(time.RFC3339),
		"adults":     2,
		"addons":     []map[string]interface{}{{"id": addOnID, "quantity": 1}},
		"promo_code": "WELCOME10",
	}

	// Base 1000 + per-person lunch 400 = 1400 gross, early bird -140,
	// promo -126 on the 1260 subtotal, final 1134.
	t.Run("quote itemizes the discounts", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/quotes", quoteBody, userToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		quote, _ := resp.Data["quote"].(map[string]interface{})
		require.NotNil(t, quote)
		price, _ := quote["price"].(map[string]interface{})
		require.NotNil(t, price)
		assert.Equal(t, "1134", price["final_total"])
		assert.Equal(t, "126", price["promo_discount"])
		assert.Equal(t, "-140", price["dynamic_adjustment"])
	})

	var reference string
	t.Run("confirm creates a pending booking", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/bookings", quoteBody, userToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		b, _ := resp.Data["booking"].(map[string]interface{})
		require.NotNil(t, b)
		reference, _ = b["reference"].(string)
		require.Regexp(t, `^BW-[0-9A-F]{8}$`, reference)
		assert.Equal(t, "pending", b["status"])
	})

	t.Run("admin confirms the booking", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/bookings/"+reference+"/transitions",
			map[string]interface{}{"new_status": "confirmed"}, suite.adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	var invID int64
	t.Run("gateway init returns a payment page", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/payments/gateway/init",
			map[string]interface{}{"booking_ref": reference, "description": "Phi Phi trip"}, userToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp payment.InitPaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotZero(t, resp.InvID)
		assert.Contains(t, resp.PaymentURL, "OutSum=1134.00")
		invID = resp.InvID
	})

	t.Run("gateway result callback marks the booking paid", func(t *testing.T) {
		w := suite.gatewayCallback(t, "1134.00", invID, resultSignature("1134.00", invID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "OK"+strconv.FormatInt(invID, 10), w.Body.String())

		b, err := suite.bookings.Get(context.Background(), reference)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingPaid, b.Status)
		require.NotNil(t, b.PaidAt)
	})

	t.Run("cashback was credited on payment", func(t *testing.T) {
		balance, err := suite.ledger.BalanceOf(context.Background(), userID)
		require.NoError(t, err)
		// 2% of 1134.
		assert.True(t, balance.Equal(decimal.RequireFromString("22.68")), balance.String())
	})

	t.Run("replayed callback is a no-op that still answers OK", func(t *testing.T) {
		w := suite.gatewayCallback(t, "1134.00", invID, resultSignature("1134.00", invID))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK"+strconv.FormatInt(invID, 10), w.Body.String())

		balance, err := suite.ledger.BalanceOf(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.RequireFromString("22.68")), "replay must not double-credit")

		history, err := suite.bookings.HistoryOf(context.Background(), reference)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("tampered callback signature is rejected", func(t *testing.T) {
		w := suite.gatewayCallback(t, "1134.00", invID, "DEADBEEF")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff complete the trip", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/bookings/"+reference+"/transitions",
			map[string]interface{}{"new_status": "completed"}, suite.adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b, err := suite.bookings.Get(context.Background(), reference)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCompleted, b.Status)
		require.NotNil(t, b.CompletedAt)
	})

	t.Run("history tells the whole story", func(t *testing.T) {
		w := suite.request(t, "GET", "/api/v1/bookings/"+reference+"/history", nil, userToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		history, _ := resp.Data["history"].([]interface{})
		assert.Len(t, history, 3)
	})
}

// TestCancellationRefundsSpentCashback books with cashback applied,
// cancels before payment and checks the ledger is made whole.
func TestCancellationRefundsSpentCashback(t *testing.T) {
	suite := setupSuite(t)
	tourID := suite.seedTour(t)
	userToken, userID := suite.registerAndLogin(t, "guest@e2e.test")

	t.Run("admin grants starting cashback", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/admin/cashback/adjust", map[string]interface{}{
			"user_id": userID,
			"amount":  "100",
			"reason":  "goodwill credit",
		}, suite.adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	startTime := time.Now().UTC().AddDate(0, 0, 7).Truncate(time.Hour)
	var reference string

	t.Run("booking spends part of the balance", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/bookings", map[string]interface{}{
			"bookable":     map[string]interface{}{"type": "tour", "id": tourID},
			"start_time":   startTime.Format(time.RFC3339),
			"end_time":     startTime.Add(6 * time.Hour).Format(time.RFC3339),
			"adults":       2,
			"cashback_thb": "60",
		}, userToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		b, _ := resp.Data["booking"].(map[string]interface{})
		reference, _ = b["reference"].(string)
		require.NotEmpty(t, reference)

		price, _ := b["price"].(map[string]interface{})
		assert.Equal(t, "60", price["cashback_spent"])
		assert.Equal(t, "940", price["final_total"])

		balance, err := suite.ledger.BalanceOf(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(40)), balance.String())
	})

	t.Run("user cancels and the ledger is made whole", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/bookings/"+reference+"/transitions",
			map[string]interface{}{"new_status": "cancelled"}, userToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b, err := suite.bookings.Get(context.Background(), reference)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, b.Status)
		require.NotNil(t, b.CancelledAt)

		balance, err := suite.ledger.BalanceOf(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(100)), balance.String())
	})

	t.Run("user cannot cancel someone else's booking", func(t *testing.T) {
		otherToken, _ := suite.registerAndLogin(t, "other@e2e.test")
		w := suite.request(t, "GET", "/api/v1/bookings/"+reference, nil, otherToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// TestGiftCardAcrossBookings runs one gift card through two bookings
// until it is exhausted.
func TestGiftCardAcrossBookings(t *testing.T) {
	suite := setupSuite(t)
	tourID := suite.seedTour(t)
	userToken, _ := suite.registerAndLogin(t, "guest@e2e.test")

	var code string
	t.Run("admin issues a gift card", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/admin/gift-cards", map[string]interface{}{
			"amount":      "1500",
			"valid_from":  time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
			"valid_until": time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
		}, suite.adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		card, _ := resp.Data["gift_card"].(map[string]interface{})
		code, _ = card["code"].(string)
		require.Regexp(t, `^GC-[0-9A-F]{8}$`, code)
	})

	startTime := time.Now().UTC().AddDate(0, 0, 7).Truncate(time.Hour)
	book := func(t *testing.T) map[string]interface{} {
		w := suite.request(t, "POST", "/api/v1/bookings", map[string]interface{}{
			"bookable":       map[string]interface{}{"type": "tour", "id": tourID},
			"start_time":     startTime.Format(time.RFC3339),
			"end_time":       startTime.Add(6 * time.Hour).Format(time.RFC3339),
			"adults":         2,
			"gift_card_code": code,
		}, userToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := parseResponse(t, w)
		b, _ := resp.Data["booking"].(map[string]interface{})
		return b
	}

	t.Run("first booking covers the full 1000", func(t *testing.T) {
		b := book(t)
		price, _ := b["price"].(map[string]interface{})
		assert.Equal(t, "1000", price["gift_card_amount"])
		assert.Equal(t, "0", price["final_total"])
	})

	t.Run("second booking drains the remaining 500", func(t *testing.T) {
		b := book(t)
		price, _ := b["price"].(map[string]interface{})
		assert.Equal(t, "500", price["gift_card_amount"])
		assert.Equal(t, "500", price["final_total"])
	})

	t.Run("exhausted card no longer applies", func(t *testing.T) {
		w := suite.request(t, "POST", "/api/v1/quotes", map[string]interface{}{
			"bookable":       map[string]interface{}{"type": "tour", "id": tourID},
			"start_time":     startTime.Format(time.RFC3339),
			"end_time":       startTime.Add(6 * time.Hour).Format(time.RFC3339),
			"adults":         2,
			"gift_card_code": code,
		}, userToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})
}
