package http

import (
	"context"

	"advenrent_backend/platform/config"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router itself reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the /api/health endpoint; in production it is the
// pgx pool's Ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is the assembled application handed from the composition root to
// the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
