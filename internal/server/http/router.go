// Package http is the JSON-over-HTTP transport of the server, built on gin.
package http

import (
	"strings"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/logging"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds the collaborators of NewRouter.
type RouterConfig struct {
	Users          UserService
	Tokens         auth.TokenVerifier
	Logger         logging.Logger
	AllowedOrigins string
}

// NewRouter builds the gin engine:
//
//	GET  /ping
//	POST /api/auth
//	POST /api/users
//	GET  /api/users         (bearer)
//	GET  /api/users/me      (bearer)
//	GET  /api/users/:id     (bearer)
//	PUT  /api/users/:id     (bearer, self only)
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	h := NewHandler(cfg.Users)
	requireClaims := RequireClaims(cfg.Tokens)

	router.GET("/ping", h.Ping)

	api := router.Group("/api")
	{
		api.POST("/auth", h.Login)

		users := api.Group("/users")
		{
			users.POST("", h.CreateUser)

			protected := users.Group("", requireClaims)
			protected.GET("", h.ListUsers)
			protected.GET("/me", h.Me)
			protected.GET("/:id", h.GetUser)
			protected.PUT("/:id", h.UpdateUser)
		}
	}

	router.NoRoute(h.NotFound)

	return router
}

func corsConfig(origins string) cors.Config {
	c := cors.DefaultConfig()

	list := []string{}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = list
	}

	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", common.AuthorizationHeaderName, common.RequestIDHeaderName}
	c.ExposeHeaders = []string{common.RequestIDHeaderName}
	return c
}
