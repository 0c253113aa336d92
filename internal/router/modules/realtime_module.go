package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
)

type RealtimeModule struct {
	Handler *handlers.RealtimeHandler
	Redis   *redis.Client
}

func NewRealtimeModule(h *handlers.RealtimeHandler, rdb *redis.Client) *RealtimeModule {
	return &RealtimeModule{Handler: h, Redis: rdb}
}

func (m *RealtimeModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/ws", rl, m.Handler.Serve)
}
