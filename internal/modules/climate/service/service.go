package service

import (
	"context"
	"time"

	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/types"
)

const defaultQueryTimeout = 5 * time.Second

// QueryObserver is told about every repository call the service makes.
type QueryObserver interface {
	ObserveQuery(query string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, time.Duration, error) {}

type Option func(*Service)

// WithQueryTimeout bounds each operation. Non-positive values are ignored.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

func WithObserver(o QueryObserver) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// Service answers the climate queries. The cutoff is fixed for the lifetime
// of the Service.
type Service struct {
	repository   repository.ClimateRepository
	cutoff       time.Time
	queryTimeout time.Duration
	observer     QueryObserver
}

func NewService(repository repository.ClimateRepository, cutoff time.Time, opts ...Option) *Service {
	s := &Service{
		repository:   repository,
		cutoff:       cutoff,
		queryTimeout: defaultQueryTimeout,
		observer:     nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Cutoff() time.Time {
	return s.cutoff
}

// observe runs fn and reports its duration and outcome under the query name.
func (s *Service) observe(query string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.observer.ObserveQuery(query, time.Since(start), err)
	return err
}

// RecentPrecipitation returns every measurement dated strictly after the cutoff.
func (s *Service) RecentPrecipitation(ctx context.Context) ([]types.Precipitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var out []types.Precipitation
	err := s.observe(repository.QueryRecentPrecipitation, func() (err error) {
		out, err = s.repository.GetPrecipitationSince(ctx, s.cutoff)
		return err
	})
	return out, err
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var out []types.Station
	err := s.observe(repository.QueryStations, func() (err error) {
		out, err = s.repository.GetStations(ctx)
		return err
	})
	return out, err
}

// MostActiveStationTemperatures returns the observations after the cutoff for
// the station with the most measurements overall.
func (s *Service) MostActiveStationTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		stationID string
		found     bool
	)
	err := s.observe(repository.QueryMostActiveStation, func() (err error) {
		stationID, found, err = s.repository.GetMostActiveStation(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return []types.TemperatureObservation{}, nil
	}

	var out []types.TemperatureObservation
	err = s.observe(repository.QueryStationTemperatures, func() (err error) {
		out, err = s.repository.GetStationTemperaturesSince(ctx, stationID, s.cutoff)
		return err
	})
	return out, err
}

// TemperatureStatsFrom aggregates observed temperatures on or after start.
func (s *Service) TemperatureStatsFrom(ctx context.Context, start string) ([]types.TemperatureStats, error) {
	from, err := parseDate("start", start)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var out []types.TemperatureStats
	err = s.observe(repository.QueryTemperatureStatsFrom, func() (err error) {
		out, err = s.repository.GetTemperatureStatsFrom(ctx, from)
		return err
	})
	return out, err
}

// TemperatureStatsRange aggregates observed temperatures between start and end
// inclusive. A start after end is not an error; it matches nothing.
func (s *Service) TemperatureStatsRange(ctx context.Context, start string, end string) ([]types.TemperatureStats, error) {
	from, err := parseDate("start", start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("end", end)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var out []types.TemperatureStats
	err = s.observe(repository.QueryTemperatureStatsRange, func() (err error) {
		out, err = s.repository.GetTemperatureStatsRange(ctx, from, to)
		return err
	})
	return out, err
}

func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repository.Ping(ctx)
}

func parseDate(param, value string) (time.Time, error) {
	t, err := time.Parse(repository.DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Param: param, Value: value}
	}
	return t, nil
}
