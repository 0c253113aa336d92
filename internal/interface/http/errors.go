package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/response"
	"github.com/oksasatya/supernanny-backend/pkg/validation"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the error's public message. Only internal
// failures are logged.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"user_id":    middleware.UserID(c),
		})
	}
	response.Abort(c, status, apperror.PublicMessage(err), nil)
}

func bindError(c *gin.Context, err error) {
	response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// pathID returns the named route parameter when it is a UUID. Any other value
// names nothing, so the request is answered with 404.
func pathID(c *gin.Context, name, what string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.Abort(c, http.StatusNotFound, what+" not found", nil)
		return "", false
	}
	return id, true
}
