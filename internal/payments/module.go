// Package payments provides the payment bounded context module.
package payments

import (
	apphttp "advenrent_backend/internal/http"
	"advenrent_backend/internal/payments/handler"
	"advenrent_backend/internal/payments/provider"
	"advenrent_backend/internal/payments/repository"
	"advenrent_backend/internal/payments/service"
	"advenrent_backend/platform/logger"
	"advenrent_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the payments module.
func NewModule(pool *pgxpool.Pool, bookings service.BookingSource, p provider.Provider, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bookings, p, log)

	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "payments"
}

// RegisterRoutes mounts payment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/payments/create-payment-intent", m.handler.CreateIntent)
}
