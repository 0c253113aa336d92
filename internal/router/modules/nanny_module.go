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

// NannyModule: discovery is public, /nannies/me is for the profile owner.
type NannyModule struct {
	Handler *handlers.NannyHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewNannyModule(h *handlers.NannyHandler, jwt *helpers.JWTManager, rdb *redis.Client) *NannyModule {
	return &NannyModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *NannyModule) Register(rg *gin.RouterGroup) {
	searchLimiter := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	photoLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserAndPath(), nil)

	g := rg.Group("/nannies")
	g.GET("", searchLimiter, m.Handler.Search)
	g.GET("/text-search", searchLimiter, m.Handler.TextSearch)

	me := g.Group("/me")
	me.Use(middleware.Auth(m.JWT), middleware.RequireRole(entity.RoleNanny))
	{
		me.GET("", m.Handler.GetMine)
		me.PUT("", m.Handler.UpdateMine)
		me.POST("/photo", photoLimiter, m.Handler.UploadPhoto)
	}

	g.GET("/:id", m.Handler.GetByID)
}
