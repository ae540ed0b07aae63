package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/service/reservations"
)

type ReservationHandler struct {
	service reservations.ReservationUseCase
}

type createReservationRequest struct {
	CustomerID int64     `json:"customer_id" binding:"required"`
	LockerID   int64     `json:"locker_id" binding:"required"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type updateReservationRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type reservationResponse struct {
	ID         string  `json:"id"`
	CustomerID int64   `json:"customer_id"`
	LockerID   int64   `json:"locker_id"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price"`
	Version    int64   `json:"version"`
}

func NewReservationHandler(service reservations.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/complete", h.complete)
	router.DELETE("/:id", h.remove)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.service.Create(c.Request.Context(), reservations.CreateInput{
		CustomerID: req.CustomerID,
		LockerID:   req.LockerID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(r))
}

func (h *ReservationHandler) list(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Query("customer_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}

	all, err := h.service.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(all))
	for i := range all {
		out = append(out, toReservationResponse(&all[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) get(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) update(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.service.Update(c.Request.Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	r, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) complete(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	r, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) remove(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseReservationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return uuid.Nil, false
	}
	return id, true
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         r.ID.String(),
		CustomerID: r.CustomerID,
		LockerID:   r.LockerID,
		StartTime:  r.StartTime.Format(time.RFC3339),
		EndTime:    r.EndTime.Format(time.RFC3339),
		Status:     string(r.Status),
		TotalPrice: r.TotalPrice,
		Version:    r.Version,
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTimeWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLockerUnavailable), errors.Is(err, domain.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
