package controller

import (
	"context"
	"net/http"
	"time"

	"climate-api/internal/modules/climate/types"
)

// ClimateService is what the handlers need from the service layer.
type ClimateService interface {
	RecentPrecipitation(ctx context.Context) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	MostActiveStationTemperatures(ctx context.Context) ([]types.TemperatureObservation, error)
	TemperatureStatsFrom(ctx context.Context, start string) ([]types.TemperatureStats, error)
	TemperatureStatsRange(ctx context.Context, start string, end string) ([]types.TemperatureStats, error)
	Cutoff() time.Time
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleStatsRange)
}
