// Package http wires domain modules into the Gin engine. Modules
// register their own routes; the router only knows the Module interface.
package http

import (
	"advenrent_backend/platform/config"
	"advenrent_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	// RegisterRoutes mounts the module's routes using the shared groups
	// and middleware in RouterContext.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is everything a module needs to mount routes: the route
// groups, the auth middleware, and the stricter limiter for credential
// endpoints.
type RouterContext struct {
	Engine    *gin.Engine
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	// Config exposes JWT settings only; modules never see full config.
	Config          config.JWTConfig
	AuthMiddleware  gin.HandlerFunc
	AuthRateLimiter *httpkit.AuthRateLimiter
}
