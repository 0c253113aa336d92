package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/response"
)

type MessageHandler struct {
	Svc    *application.MessageService
	Logger *logrus.Logger
}

func NewMessageHandler(svc *application.MessageService, logger *logrus.Logger) *MessageHandler {
	return &MessageHandler{Svc: svc, Logger: logger}
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	convs, err := h.Svc.Conversations(c.Request.Context(), middleware.UserID(c), middleware.UserRole(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, convs, "conversations")
}

func (h *MessageHandler) List(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingId", "booking")
	if !ok {
		return
	}
	res, err := h.Svc.List(c.Request.Context(), bookingID, middleware.UserID(c),
		queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, res, "messages")
}

func (h *MessageHandler) Send(c *gin.Context) {
	bookingID, ok := pathID(c, "bookingId", "booking")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.Svc.Send(c.Request.Context(), bookingID, middleware.UserID(c), req.Text)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, m, "message sent")
}
