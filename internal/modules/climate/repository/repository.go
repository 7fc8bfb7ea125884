package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
	"time"

	"climate-api/internal/modules/climate/types"
)

// DateLayout is how the dataset stores dates. Lexical order equals date order.
const DateLayout = "2006-01-02"

//go:embed sql/get-recent-precipitation.sql
var getRecentPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-temperatures.sql
var getStationTemperaturesSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

// Query names, used in QueryError and metrics labels.
const (
	QueryRecentPrecipitation   = "recent_precipitation"
	QueryStations              = "stations"
	QueryMostActiveStation     = "most_active_station"
	QueryStationTemperatures   = "station_temperatures"
	QueryTemperatureStatsFrom  = "temperature_stats_from"
	QueryTemperatureStatsRange = "temperature_stats_range"
	QueryLatestDate            = "latest_date"
	QueryPing                  = "ping"
)

type ClimateRepository interface {
	GetPrecipitationSince(ctx context.Context, cutoff time.Time) ([]types.Precipitation, error)
	GetStations(ctx context.Context) ([]types.Station, error)
	// GetMostActiveStation returns the station with the most measurements.
	// Equal counts resolve to the lexicographically smallest station id.
	// ok is false when there are no measurements.
	GetMostActiveStation(ctx context.Context) (stationID string, ok bool, err error)
	GetStationTemperaturesSince(ctx context.Context, stationID string, cutoff time.Time) ([]types.TemperatureObservation, error)
	GetTemperatureStatsFrom(ctx context.Context, start time.Time) ([]types.TemperatureStats, error)
	GetTemperatureStatsRange(ctx context.Context, start time.Time, end time.Time) ([]types.TemperatureStats, error)
	GetLatestDate(ctx context.Context) (date time.Time, ok bool, err error)
	Ping(ctx context.Context) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func closeRows(rows *sql.Rows, query string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", query, "error", err)
	}
}

func (r *repositoryImpl) GetPrecipitationSince(ctx context.Context, cutoff time.Time) ([]types.Precipitation, error) {
	rows, err := r.db.QueryContext(ctx, getRecentPrecipitationSQL, formatDate(cutoff))
	if err != nil {
		return nil, queryError(QueryRecentPrecipitation, err)
	}
	defer closeRows(rows, QueryRecentPrecipitation)

	out := make([]types.Precipitation, 0)
	for rows.Next() {
		var (
			p    types.Precipitation
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&p.Date, &prcp); err != nil {
			return nil, queryError(QueryRecentPrecipitation, err)
		}
		if prcp.Valid {
			v := prcp.Float64
			p.Prcp = &v
		}
		out = append(out, p)
	}
	return out, queryError(QueryRecentPrecipitation, rows.Err())
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, queryError(QueryStations, err)
	}
	defer closeRows(rows, QueryStations)

	out := make([]types.Station, 0)
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, queryError(QueryStations, err)
		}
		out = append(out, s)
	}
	return out, queryError(QueryStations, rows.Err())
}

func (r *repositoryImpl) GetMostActiveStation(ctx context.Context) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, queryError(QueryMostActiveStation, err)
	}
	return id, true, nil
}

func (r *repositoryImpl) GetStationTemperaturesSince(ctx context.Context, stationID string, cutoff time.Time) ([]types.TemperatureObservation, error) {
	rows, err := r.db.QueryContext(ctx, getStationTemperaturesSQL, stationID, formatDate(cutoff))
	if err != nil {
		return nil, queryError(QueryStationTemperatures, err)
	}
	defer closeRows(rows, QueryStationTemperatures)

	out := make([]types.TemperatureObservation, 0)
	for rows.Next() {
		var o types.TemperatureObservation
		if err := rows.Scan(&o.Date, &o.Tobs); err != nil {
			return nil, queryError(QueryStationTemperatures, err)
		}
		out = append(out, o)
	}
	return out, queryError(QueryStationTemperatures, rows.Err())
}

func (r *repositoryImpl) GetTemperatureStatsFrom(ctx context.Context, start time.Time) ([]types.TemperatureStats, error) {
	row := r.db.QueryRowContext(ctx, getTemperatureStatsFromSQL, formatDate(start))
	stats, err := scanTemperatureStats(row)
	return stats, queryError(QueryTemperatureStatsFrom, err)
}

func (r *repositoryImpl) GetTemperatureStatsRange(ctx context.Context, start time.Time, end time.Time) ([]types.TemperatureStats, error) {
	row := r.db.QueryRowContext(ctx, getTemperatureStatsRangeSQL, formatDate(start), formatDate(end))
	stats, err := scanTemperatureStats(row)
	return stats, queryError(QueryTemperatureStatsRange, err)
}

// scanTemperatureStats reads the single aggregate row. An aggregate over zero
// measurements yields an empty slice rather than a row of NULLs.
func scanTemperatureStats(row *sql.Row) ([]types.TemperatureStats, error) {
	var (
		count       int
		date        sql.NullString
		lo, avg, hi sql.NullFloat64
	)
	if err := row.Scan(&count, &date, &lo, &avg, &hi); err != nil {
		return nil, err
	}
	if count == 0 {
		return []types.TemperatureStats{}, nil
	}
	return []types.TemperatureStats{{
		Date: date.String,
		Min:  lo.Float64,
		Avg:  avg.Float64,
		Max:  hi.Float64,
	}}, nil
}

func (r *repositoryImpl) GetLatestDate(ctx context.Context) (time.Time, bool, error) {
	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest); err != nil {
		return time.Time{}, false, queryError(QueryLatestDate, err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(DateLayout, latest.String)
	if err != nil {
		return time.Time{}, false, queryError(QueryLatestDate, err)
	}
	return t, true, nil
}

func (r *repositoryImpl) Ping(ctx context.Context) error {
	var ok int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return queryError(QueryPing, err)
	}
	return nil
}
