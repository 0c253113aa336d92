package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

// ReviewModule: listing is public, writing is for parents.
type ReviewModule struct {
	Handler *handlers.ReviewHandler
	JWT     *helpers.JWTManager
}

func NewReviewModule(h *handlers.ReviewHandler, jwt *helpers.JWTManager) *ReviewModule {
	return &ReviewModule{Handler: h, JWT: jwt}
}

func (m *ReviewModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/reviews")
	g.GET("/nanny/:nannyUserId", m.Handler.ListForNanny)
	g.POST("", middleware.Auth(m.JWT), middleware.RequireRole(entity.RoleParent), m.Handler.Create)
}
