package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bluewave/internal/modules/booking"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	sinks   []booking.EventSink
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{}), sinks ...booking.EventSink) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, sinks: sinks, loggerf: loggerf}
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/gateway/init", h.InitPayment)
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/gateway/result", h.ResultCallback)
}

func (h *Handler) InitPayment(c *gin.Context) {
	var req InitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.service.InitPayment(c.Request.Context(), req)
	if err != nil {
		h.loggerf("level=error msg=gateway init failed booking_ref=%s err=%v", req.BookingRef, err)
		if errors.Is(err, ErrNotPayable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment init failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResultCallback answers the gateway's server-to-server notification.
// The gateway retries until it receives the OK{InvId} body.
func (h *Handler) ResultCallback(c *gin.Context) {
	rawBody, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(rawBody)))
	_ = c.Request.ParseForm()

	outSum := c.PostForm("OutSum")
	invID, err := strconv.ParseInt(c.PostForm("InvId"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	signature := c.PostForm("SignatureValue")

	reply, events, err := h.service.HandleResultCallback(c.Request.Context(), outSum, invID, signature, string(rawBody))
	if err != nil {
		h.loggerf("level=error msg=gateway result callback failed inv_id=%d err=%v", invID, err)
		switch {
		case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrAmountMismatch):
			c.String(http.StatusForbidden, "forbidden")
		default:
			c.String(http.StatusInternalServerError, "internal error")
		}
		return
	}

	for _, sink := range h.sinks {
		sink.Publish(events)
	}
	c.String(http.StatusOK, reply)
}
