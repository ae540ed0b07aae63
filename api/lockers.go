package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/service/lockers"
)

type LockerHandler struct {
	service lockers.LockerUseCase
}

type lockerResponse struct {
	ID         int64   `json:"id"`
	SizeClass  string  `json:"size_class"`
	HourlyRate float64 `json:"hourly_rate"`
	Status     string  `json:"status"`
	Version    int64   `json:"version"`
}

type availabilityResponse struct {
	LockerID  int64  `json:"locker_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

func NewLockerHandler(service lockers.LockerUseCase) *LockerHandler {
	return &LockerHandler{service: service}
}

func (h *LockerHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
}

func (h *LockerHandler) list(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]lockerResponse, 0, len(all))
	for i := range all {
		out = append(out, toLockerResponse(&all[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *LockerHandler) get(c *gin.Context) {
	id, ok := parseLockerID(c)
	if !ok {
		return
	}
	locker, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLockerResponse(locker))
}

func (h *LockerHandler) availability(c *gin.Context) {
	id, ok := parseLockerID(c)
	if !ok {
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{
		LockerID:  id,
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
		Available: available,
	})
}

func parseLockerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locker id"})
		return 0, false
	}
	return id, true
}

func toLockerResponse(l *domain.Locker) lockerResponse {
	return lockerResponse{
		ID:         l.ID,
		SizeClass:  l.SizeClass,
		HourlyRate: l.HourlyRate,
		Status:     string(l.Status),
		Version:    l.Version,
	}
}
