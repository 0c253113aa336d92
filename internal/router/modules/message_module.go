package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

type MessageModule struct {
	Handler *handlers.MessageHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewMessageModule(h *handlers.MessageHandler, jwt *helpers.JWTManager, rdb *redis.Client) *MessageModule {
	return &MessageModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *MessageModule) Register(rg *gin.RouterGroup) {
	sendLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserAndPath(), nil)

	g := rg.Group("/messages")
	g.Use(middleware.Auth(m.JWT))
	{
		g.GET("/conversations", m.Handler.Conversations)
		g.GET("/:bookingId", m.Handler.List)
		g.POST("/:bookingId", sendLimiter, m.Handler.Send)
	}
}
