package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users/me")
	g.Use(middleware.Auth(m.JWT))
	{
		g.GET("", m.Handler.Me)
		g.GET("/earnings", middleware.RequireRole(entity.RoleNanny), m.Handler.Earnings)
	}
}
