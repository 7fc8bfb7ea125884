package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/views"
	"climate-api/internal/utils"
)

const indexTitle = "Hawaii climate and weather analysis. Surfs up!"

var indexRoutes = []views.RouteLink{
	{Path: "/api/v1.0/precipitation", Href: "/api/v1.0/precipitation", Description: "precipitation for the last 12 months"},
	{Path: "/api/v1.0/stations", Href: "/api/v1.0/stations", Description: "all stations"},
	{Path: "/api/v1.0/tobs", Href: "/api/v1.0/tobs", Description: "temperatures of the most active station for the last 12 months"},
	{Path: "/api/v1.0/start", Href: "/api/v1.0/2017-01-01", Description: "min, avg and max temperature from start (YYYY-MM-DD)"},
	{Path: "/api/v1.0/start/end", Href: "/api/v1.0/2017-01-01/2017-01-31", Description: "min, avg and max temperature between start and end inclusive"},
}

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := &views.IndexData{
		Title:  indexTitle,
		Routes: indexRoutes,
		Cutoff: c.service.Cutoff().Format(repository.DateLayout),
	}
	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, data); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("index: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.RecentPrecipitation(r.Context())
	if err != nil {
		writeServiceError(w, r, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, r, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.MostActiveStationTemperatures(r.Context())
	if err != nil {
		writeServiceError(w, r, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	if start == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing start date")
		return
	}

	stats, err := c.service.TemperatureStatsFrom(r.Context(), start)
	if err != nil {
		writeServiceError(w, r, "stats from", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	if start == "" || end == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing start or end date")
		return
	}

	stats, err := c.service.TemperatureStatsRange(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, "stats range", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
