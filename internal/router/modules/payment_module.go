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

// PaymentModule: the webhook is authenticated by its signature, not a token.
type PaymentModule struct {
	Handler *handlers.PaymentHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewPaymentModule(h *handlers.PaymentHandler, jwt *helpers.JWTManager, rdb *redis.Client) *PaymentModule {
	return &PaymentModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *PaymentModule) Register(rg *gin.RouterGroup) {
	intentLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserAndPath(), nil)

	g := rg.Group("/payments")
	g.POST("/webhook", m.Handler.Webhook)
	g.POST("/intent", middleware.Auth(m.JWT), middleware.RequireRole(entity.RoleParent), intentLimiter, m.Handler.CreateIntent)
}
