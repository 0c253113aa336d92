package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/response"
)

type BookingHandler struct {
	Svc    *application.BookingService
	Logger *logrus.Logger
}

func NewBookingHandler(svc *application.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

type createBookingRequest struct {
	NannyUserID   string    `json:"nanny_user_id" binding:"required,uuid"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	Notes         string    `json:"notes" binding:"max=500"`
	ChildrenCount int       `json:"children_count" binding:"omitempty,min=1,max=10"`
	ChildrenAges  []string  `json:"children_ages" binding:"omitempty,max=10,dive,max=20"`
	Address       string    `json:"address" binding:"max=300"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,booking_status"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), middleware.UserID(c), application.CreateBookingInput{
		NannyUserID:   req.NannyUserID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Notes:         req.Notes,
		ChildrenCount: req.ChildrenCount,
		ChildrenAges:  req.ChildrenAges,
		Address:       req.Address,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, b, "booking requested")
}

func (h *BookingHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c),
		c.Query("status"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, res, "bookings")
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	d, err := h.Svc.Get(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, d, "booking")
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Svc.UpdateStatus(c.Request.Context(), middleware.UserID(c), id, entity.BookingStatus(req.Status))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, b, "booking updated")
}
