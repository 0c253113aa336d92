package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

// BookingModule serves /bookings. Every route needs a bearer token.
type BookingModule struct {
	Handler *handlers.BookingHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewBookingModule(h *handlers.BookingHandler, jwt *helpers.JWTManager, rdb *redis.Client) *BookingModule {
	return &BookingModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *BookingModule) Register(rg *gin.RouterGroup) {
	createLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByUserAndPath(), nil)

	g := rg.Group("/bookings")
	g.Use(middleware.Auth(m.JWT))
	{
		g.POST("", middleware.RequireRole(entity.RoleParent, entity.RoleAdmin), createLimiter, m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/:id", m.Handler.Get)
		g.PATCH("/:id/status", m.Handler.UpdateStatus)
	}
}
