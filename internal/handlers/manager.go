package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/internal/middleware"
	"github.com/mroshb/friendgraph/internal/services"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerManager struct {
	AuthSvc     *services.AuthService
	FriendSvc   *services.FriendService
	RateLimiter *middleware.RateLimiter
}

func NewHandlerManager(
	authSvc *services.AuthService,
	friendSvc *services.FriendService,
	rateLimiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		AuthSvc:     authSvc,
		FriendSvc:   friendSvc,
		RateLimiter: rateLimiter,
	}
}

// Router wires every route onto a fresh gin engine.
func (h *HandlerManager) Router() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	if h.RateLimiter != nil {
		api.Use(h.RateLimiter.LimitIP())
	}
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	authed := api.Group("/")
	authed.Use(middleware.RequireAuth(h.AuthSvc))
	if h.RateLimiter != nil {
		authed.Use(h.RateLimiter.LimitUser())
	}
	authed.GET("/me", h.Me)
	authed.POST("/me", h.UpdateMe)

	authed.POST("/friends/:targetId", h.CreateFriendRequest)
	authed.GET("/friends", h.GetFriends)
	authed.GET("/friends/requests", h.GetPendingFriendRequests)
	authed.PATCH("/friends/:id", h.RespondToFriendRequest)

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, errors.New(errors.ErrCodeNotFound, "route not found"))
	})

	return router
}

func (h *HandlerManager) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
