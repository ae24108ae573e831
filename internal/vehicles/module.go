// Package vehicles provides the vehicle listing bounded context module.
package vehicles

import (
	apphttp "advenrent_backend/internal/http"
	"advenrent_backend/internal/storage"
	"advenrent_backend/internal/vehicles/handler"
	"advenrent_backend/internal/vehicles/repository"
	"advenrent_backend/internal/vehicles/service"
	"advenrent_backend/platform/logger"
	"advenrent_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the vehicles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the vehicles module. st may be nil when
// object storage is not configured.
func NewModule(pool *pgxpool.Pool, c service.Cache, st storage.Service, cfg service.Config, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, c, st, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "vehicles"
}

// Repository returns the repository for use by other modules.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts vehicle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/vehicles", m.handler.Search)
	ctx.V1.GET("/vehicles/:id", m.handler.Get)

	ctx.Protected.POST("/vehicles", m.handler.Create)
	ctx.Protected.PUT("/vehicles/:id", m.handler.Update)
	ctx.Protected.PUT("/vehicles/:id/images", m.handler.ReplaceImages)
}
