package api

import (
	"net/http"

	"savoria/api/delivery"
	"savoria/api/health"
	"savoria/api/middleware"
	"savoria/api/order"
	"savoria/api/payment"
	"savoria/api/user"
	"savoria/config"
	domainuser "savoria/domain/user"

	"github.com/gin-gonic/gin"
)

// Controllers bundles everything the router mounts under /api/v1.
type Controllers struct {
	Health   *health.Controller
	User     *user.Controller
	Order    *order.Controller
	Delivery *delivery.Controller
	Payment  *payment.Controller
}

type Router struct {
	engine      *gin.Engine
	config      *config.Config
	controllers Controllers
}

func NewRouter(cfg *config.Config, users domainuser.Directory, controllers Controllers) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// order matters: the request id must exist before anything logs
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))
	engine.Use(middleware.ActorMiddleware(users))

	return &Router{engine: engine, config: cfg, controllers: controllers}
}

func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.controllers.Health.RegisterRoutes(apiGroup)
		r.controllers.User.RegisterRoutes(apiGroup)
		r.controllers.Order.RegisterRoutes(apiGroup)
		r.controllers.Delivery.RegisterRoutes(apiGroup)
		r.controllers.Payment.RegisterRoutes(apiGroup)
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
