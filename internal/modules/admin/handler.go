package admin

import (
	"errors"
	"net/http"
	"strconv"

	"bluewave/internal/domain"
	"bluewave/internal/modules/booking"
	"bluewave/internal/modules/notification"
	"bluewave/internal/pkg/response"
	"bluewave/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service       *Service
	bookings      *booking.Service
	notifications *notification.Service
}

func NewHandler(service *Service, bookings *booking.Service, notifications *notification.Service) *Handler {
	return &Handler{service: service, bookings: bookings, notifications: notifications}
}

// RegisterRoutes expects rg to already be behind admin-role middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pricing-rules", h.CreateRule)
	rg.GET("/pricing-rules", h.ListRules)
	rg.PATCH("/pricing-rules/:id/active", h.SetRuleActive)

	rg.POST("/promo-codes", h.CreatePromo)
	rg.GET("/promo-codes", h.ListPromos)
	rg.PATCH("/promo-codes/:id/active", h.SetPromoActive)

	rg.POST("/gift-cards", h.CreateGiftCard)
	rg.GET("/gift-cards", h.ListGiftCards)
	rg.PATCH("/gift-cards/:id/status", h.SetGiftCardStatus)

	rg.POST("/loyalty-tiers", h.CreateTier)
	rg.POST("/cashback/adjust", h.AdjustCashback)

	rg.GET("/bookings", h.ListBookings)
	rg.POST("/bookings/:reference/notes", h.AddNote)
	rg.GET("/bookings/:reference/notes", h.ListNotes)
	rg.GET("/alerts", h.StaffFeed)
}

func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid rule", errs)
		return
	}
	rule, err := h.service.CreateRule(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUnknownRuleType) {
			response.Error(c, http.StatusBadRequest, "UNKNOWN_RULE_TYPE", err.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, "RULE_REJECTED", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"rule": rule})
}

func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list rules")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rules": rules})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) SetRuleActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := h.service.SetRuleActive(c.Request.Context(), id, req.Active); err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update rule")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) CreatePromo(c *gin.Context) {
	var req CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid promo code", errs)
		return
	}
	p, err := h.service.CreatePromo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusConflict, "PROMO_REJECTED", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"promo": p})
}

func (h *Handler) ListPromos(c *gin.Context) {
	promos, err := h.service.ListPromos(c.Request.Context(), intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list promo codes")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"promos": promos})
}

func (h *Handler) SetPromoActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := h.service.SetPromoActive(c.Request.Context(), id, req.Active); err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update promo code")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) CreateGiftCard(c *gin.Context) {
	var req CreateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid gift card", errs)
		return
	}
	g, err := h.service.CreateGiftCard(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "GIFT_CARD_REJECTED", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"gift_card": g})
}

func (h *Handler) ListGiftCards(c *gin.Context) {
	cards, err := h.service.ListGiftCards(c.Request.Context(), intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list gift cards")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"gift_cards": cards})
}

type setStatusRequest struct {
	Status domain.GiftCardStatus `json:"status" validate:"required"`
}

func (h *Handler) SetGiftCardStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := h.service.SetGiftCardStatus(c.Request.Context(), id, req.Status); err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update gift card")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) CreateTier(c *gin.Context) {
	var req CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid tier", errs)
		return
	}
	tier, err := h.service.CreateTier(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create tier")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"tier": tier})
}

func (h *Handler) AdjustCashback(c *gin.Context) {
	var req AdjustCashbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid adjustment", errs)
		return
	}
	entry, err := h.service.AdjustCashback(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusConflict, "ADJUSTMENT_REJECTED", err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entry": entry})
}

func (h *Handler) ListBookings(c *gin.Context) {
	status := domain.BookingStatus(c.Query("status"))
	bookings, err := h.service.ListBookings(c.Request.Context(), status, intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) AddNote(c *gin.Context) {
	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Note text is required", errs)
		return
	}
	note, err := h.bookings.AddNote(c.Request.Context(), c.Param("reference"), req.Text, c.GetInt64("user_id"))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to add note")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"note": note})
}

func (h *Handler) ListNotes(c *gin.Context) {
	notes, err := h.bookings.NotesOf(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list notes")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

func (h *Handler) StaffFeed(c *gin.Context) {
	alerts, err := h.notifications.StaffFeed(c.Request.Context(), intQuery(c, "limit"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list alerts")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"alerts": alerts})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}
