package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"bluewave/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/vessels", h.Vessels)
	rg.GET("/vessels/:id", h.Vessel)
	rg.GET("/tours", h.Tours)
	rg.GET("/tours/:id", h.Tour)
	rg.GET("/addons", h.AddOns)
}

func (h *Handler) Vessels(c *gin.Context) {
	vessels, err := h.service.Vessels(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list vessels")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vessels": vessels})
}

func (h *Handler) Vessel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid vessel ID")
		return
	}
	v, err := h.service.Vessel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Vessel not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get vessel")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"vessel": v})
}

func (h *Handler) Tours(c *gin.Context) {
	tours, err := h.service.Tours(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list tours")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tours": tours})
}

func (h *Handler) Tour(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}
	tour, err := h.service.Tour(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Tour not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get tour")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tour": tour})
}

func (h *Handler) AddOns(c *gin.Context) {
	addons, err := h.service.AddOns(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list add-ons")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"addons": addons})
}
