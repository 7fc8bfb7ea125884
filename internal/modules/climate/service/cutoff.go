package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"climate-api/internal/config"
	"climate-api/internal/modules/climate/repository"
)

// lookback is the "last twelve months" window.
const lookback = 365

// ErrEmptyDataset is returned when the reference date must come from a
// dataset that has no measurements.
var ErrEmptyDataset = errors.New("dataset has no measurements")

// Cutoff returns the date 365 days before reference.
func Cutoff(reference time.Time) time.Time {
	return reference.AddDate(0, 0, -lookback)
}

// ResolveReferenceDate turns the configured reference into a date. The value
// config.ReferenceLatest reads the newest measurement date from the dataset.
func ResolveReferenceDate(ctx context.Context, repo repository.ClimateRepository, reference string) (time.Time, error) {
	if reference != config.ReferenceLatest {
		t, err := time.Parse(repository.DateLayout, reference)
		if err != nil {
			return time.Time{}, fmt.Errorf("reference date %q: %w", reference, err)
		}
		return t, nil
	}

	latest, ok, err := repo.GetLatestDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrEmptyDataset
	}
	return latest, nil
}
