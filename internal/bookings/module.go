// Package bookings provides the trip booking bounded context module.
package bookings

import (
	"advenrent_backend/internal/bookings/handler"
	"advenrent_backend/internal/bookings/repository"
	"advenrent_backend/internal/bookings/service"
	apphttp "advenrent_backend/internal/http"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
	"advenrent_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the bookings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the bookings module. scheduler may be
// nil when reminders are disabled.
func NewModule(pool *pgxpool.Pool, vehicles service.VehicleSource, users service.UserSource, bus events.Bus, scheduler service.ReminderScheduler, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, vehicles, users, bus, scheduler, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bookings"
}

// Repository returns the repository for use by other modules.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts booking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/bookings", m.handler.Create)
	ctx.Protected.GET("/bookings", m.handler.ListMine)
	ctx.Protected.GET("/bookings/:id", m.handler.Get)
	ctx.Protected.POST("/bookings/:id/cancel", m.handler.Cancel)
}
