package router

import (
	"github.com/oksasatya/supernanny-backend/internal/container"
	handlers "github.com/oksasatya/supernanny-backend/internal/interface/http"
	"github.com/oksasatya/supernanny-backend/internal/router/modules"
)

// InitModules builds the handlers from c and adds every feature module to r.
// Call it once at startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	log := c.Logger

	r.Add(modules.NewBookingModule(handlers.NewBookingHandler(c.Bookings, log), c.JWT, c.Redis))
	r.Add(modules.NewMessageModule(handlers.NewMessageHandler(c.Messages, log), c.JWT, c.Redis))
	r.Add(modules.NewReviewModule(handlers.NewReviewHandler(c.Reviews, log), c.JWT))
	r.Add(modules.NewNannyModule(handlers.NewNannyHandler(c.Nannies, log), c.JWT, c.Redis))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.Users, c.Earnings, log), c.JWT))
	r.Add(modules.NewPaymentModule(handlers.NewPaymentHandler(c.Payments, log), c.JWT, c.Redis))

	rt := handlers.NewRealtimeHandler(c.Hub, c.Gateway, c.JWT, log, c.Config.WSPingInterval, c.Config.CORSOrigins())
	r.Add(modules.NewRealtimeModule(rt, c.Redis))

	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
