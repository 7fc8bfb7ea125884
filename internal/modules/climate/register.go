package climate

import (
	"context"
	"database/sql"
	"net/http"

	"climate-api/internal/config"
	"climate-api/internal/modules/climate/controller"
	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/service"
	"climate-api/internal/modules/climate/views"
)

// RegisterFeature wires the climate routes onto mux and returns the service so
// the caller can reuse it for health checks. observer may be nil.
func RegisterFeature(ctx context.Context, mux *http.ServeMux, db *sql.DB, cfg config.Config, observer service.QueryObserver) (*service.Service, error) {
	if err := views.LoadTemplates(); err != nil {
		return nil, err
	}

	climateRepository := repository.NewRepository(db)
	reference, err := service.ResolveReferenceDate(ctx, climateRepository, cfg.ReferenceDate)
	if err != nil {
		return nil, err
	}

	climateService := service.NewService(climateRepository, service.Cutoff(reference),
		service.WithQueryTimeout(cfg.QueryTimeout),
		service.WithObserver(observer),
	)

	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
	return climateService, nil
}
