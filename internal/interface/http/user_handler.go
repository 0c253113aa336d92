package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/response"
)

type UserHandler struct {
	Users      *application.UserService
	EarningSvc *application.EarningService
	Logger     *logrus.Logger
}

func NewUserHandler(users *application.UserService, earnings *application.EarningService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, EarningSvc: earnings, Logger: logger}
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Users.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, u, "profile")
}

func (h *UserHandler) Earnings(c *gin.Context) {
	rep, err := h.EarningSvc.Report(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, rep, "earnings")
}
