package booking

import (
	"errors"
	"net/http"

	"bluewave/internal/domain"
	"bluewave/internal/modules/giftcard"
	"bluewave/internal/modules/ledger"
	"bluewave/internal/modules/promo"
	"bluewave/internal/pkg/response"
	"bluewave/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	sinks   []EventSink
}

func NewHandler(service *Service, sinks ...EventSink) *Handler {
	return &Handler{service: service, sinks: sinks}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes", h.Quote)
	rg.POST("/bookings", h.Confirm)
	rg.GET("/bookings", h.List)
	rg.GET("/bookings/:reference", h.Get)
	rg.GET("/bookings/:reference/history", h.History)
	rg.POST("/bookings/:reference/transitions", h.Transition)
}

func (h *Handler) publish(events []domain.OutboundEvent) {
	if len(events) == 0 {
		return
	}
	for _, sink := range h.sinks {
		sink.Publish(events)
	}
}

func (h *Handler) bindQuote(c *gin.Context) (QuoteRequest, bool) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return req, false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid quote request", errs)
		return req, false
	}
	req.UserID = c.GetInt64("user_id")
	return req, true
}

func (h *Handler) Quote(c *gin.Context) {
	req, ok := h.bindQuote(c)
	if !ok {
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quote": quote})
}

func (h *Handler) Confirm(c *gin.Context) {
	req, ok := h.bindQuote(c)
	if !ok {
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !canView(c, b) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not your booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) List(c *gin.Context) {
	bookings, err := h.service.ListByUser(c.Request.Context(), c.GetInt64("user_id"), 20, 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) History(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !canView(c, b) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not your booking")
		return
	}
	history, err := h.service.HistoryOf(c.Request.Context(), b.Reference)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}

func (h *Handler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	actor := actorFromContext(c)
	b, events, err := h.service.Transition(c.Request.Context(), c.Param("reference"), req.NewStatus, actor, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(events)
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func actorFromContext(c *gin.Context) domain.Actor {
	actor := domain.Actor{Type: domain.ActorUser, ID: c.GetInt64("user_id")}
	switch c.GetString("role") {
	case "admin":
		actor.Type = domain.ActorAdmin
	case "vendor":
		actor.Type = domain.ActorVendor
	}
	return actor
}

func canView(c *gin.Context, b *domain.Booking) bool {
	role := c.GetString("role")
	return role == "admin" || role == "vendor" || b.UserID == c.GetInt64("user_id")
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrBookableNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Bookable not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrReasonRequired):
		response.Error(c, http.StatusUnprocessableEntity, "REASON_REQUIRED", err.Error())
	case errors.Is(err, ErrActorNotAllowed):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, giftcard.ErrInsufficientBalance):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, ErrBookableInactive),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrInvalidParty),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrAddOnNotFound),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, promo.ErrNotFound),
		errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrNotStarted),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrMinOrder),
		errors.Is(err, promo.ErrScope),
		errors.Is(err, promo.ErrUsageLimit),
		errors.Is(err, promo.ErrUserLimit),
		errors.Is(err, giftcard.ErrNotFound),
		errors.Is(err, giftcard.ErrNotActive),
		errors.Is(err, giftcard.ErrNotStarted),
		errors.Is(err, giftcard.ErrExpired),
		errors.Is(err, giftcard.ErrScope):
		response.Error(c, http.StatusUnprocessableEntity, "QUOTE_REJECTED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}
