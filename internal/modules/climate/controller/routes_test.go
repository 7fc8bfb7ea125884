package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"testing"

	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/service"
	"climate-api/internal/testdb"
)

// sampleController serves the embedded sample dataset with reference date
// 2017-08-23, so the cutoff is 2016-08-23.
func sampleController(t *testing.T) ClimateService {
	t.Helper()
	repo := repository.NewRepository(testdb.OpenSample(t))
	ref, err := service.ResolveReferenceDate(context.Background(), repo, "2017-08-23")
	if err != nil {
		t.Fatalf("ResolveReferenceDate: %v", err)
	}
	return service.NewService(repo, service.Cutoff(ref))
}

func TestSample_precipitationCutoffIsStrict(t *testing.T) {
	rec := serve(t, sampleController(t), http.MethodGet, "/api/v1.0/precipitation")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var rows []struct {
		Date string   `json:"date"`
		Prcp *float64 `json:"prcp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var dates []string
	nulls := 0
	for _, r := range rows {
		dates = append(dates, r.Date)
		if r.Prcp == nil {
			nulls++
		}
	}
	sort.Strings(dates)
	want := []string{"2016-08-24", "2016-08-24", "2016-08-25", "2017-08-17", "2017-08-18", "2017-08-22", "2017-08-23"}
	if strings.Join(dates, ",") != strings.Join(want, ",") {
		t.Errorf("dates = %v; want %v", dates, want)
	}
	if nulls != 2 {
		t.Errorf("null prcp rows = %d; want 2", nulls)
	}
}

func TestSample_stations(t *testing.T) {
	rec := serve(t, sampleController(t), http.MethodGet, "/api/v1.0/stations")

	want := `[["USC00513117","KANEOHE 838.1, HI US"],["USC00519281","WAIHEE 837.5, HI US"],["USC00519397","WAIKIKI 717.2, HI US"]]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s; want %s", got, want)
	}
}

func TestSample_statsFrom(t *testing.T) {
	svc := sampleController(t)

	rec := serve(t, svc, http.MethodGet, "/api/v1.0/2017-08-23")
	if got := strings.TrimSpace(rec.Body.String()); got != `[["2017-08-23",81,81,81]]` {
		t.Errorf("body = %s", got)
	}

	rec = serve(t, svc, http.MethodGet, "/api/v1.0/2018-01-01")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("no matching rows: got %d %s; want 200 []", rec.Code, rec.Body.String())
	}

	rec = serve(t, svc, http.MethodGet, "/api/v1.0/08-23-2017")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed start: status = %d; want 400", rec.Code)
	}
}

func TestSample_statsRange(t *testing.T) {
	rec := serve(t, sampleController(t), http.MethodGet, "/api/v1.0/2016-08-23/2016-08-25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var rows [][]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 4 {
		t.Fatalf("rows = %v; want one 4-tuple", rows)
	}
	row := rows[0]
	if row[0] != "2016-08-23" {
		t.Errorf("date = %v; want 2016-08-23", row[0])
	}
	// 81 79 76 77 77 80
	if row[1] != 76.0 || row[3] != 81.0 {
		t.Errorf("min/max = %v/%v; want 76/81", row[1], row[3])
	}
	if avg := row[2].(float64); math.Abs(avg-470.0/6) > 1e-9 {
		t.Errorf("avg = %v; want %v", avg, 470.0/6)
	}
}

func TestTobs_onlyMostActiveStation(t *testing.T) {
	db := testdb.Open(t)
	for i := 0; i < 10; i++ {
		testdb.Exec(t, db, `INSERT INTO measurements (station, date, prcp, tobs) VALUES (?, ?, 0, ?)`,
			"USC1", fmt.Sprintf("2017-01-%02d", i+1), 70+i)
	}
	for i := 0; i < 3; i++ {
		testdb.Exec(t, db, `INSERT INTO measurements (station, date, prcp, tobs) VALUES (?, ?, 0, 60)`,
			"USC2", fmt.Sprintf("2017-02-%02d", i+1))
	}
	repo := repository.NewRepository(db)
	ref, err := service.ResolveReferenceDate(context.Background(), repo, "2017-08-23")
	if err != nil {
		t.Fatalf("ResolveReferenceDate: %v", err)
	}

	rec := serve(t, service.NewService(repo, service.Cutoff(ref)), http.MethodGet, "/api/v1.0/tobs")

	var rows [][]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("got %d rows; want 10", len(rows))
	}
	for _, r := range rows {
		if r[1] == 60.0 {
			t.Errorf("row %v belongs to USC2", r)
		}
	}
}
