package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"climate-api/internal/db"
	"climate-api/internal/httpapi"
)

func TestBuild_concurrentRequests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	if err := writeSample(path); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	targets := []string{
		"/api/v1.0/tobs",
		"/api/v1.0/precipitation",
		"/api/v1.0/stations",
		"/api/v1.0/2016-08-23",
		"/api/v1.0/2016-08-23/2017-08-23",
		"/",
		"/healthz",
	}

	for _, logSQL := range []bool{false, true} {
		t.Run(fmt.Sprintf("log sql %v", logSQL), func(t *testing.T) {
			cfg := testConfig()
			cfg.Path = path
			cfg.MaxOpenConns = 4
			cfg.MaxIdleConns = 4
			cfg.LogSQL = logSQL

			logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
			conn, err := db.Open(context.Background(), cfg, logger)
			if err != nil {
				t.Fatalf("db.Open: %v", err)
			}
			t.Cleanup(func() { _ = db.Close(conn) })

			h, err := Build(context.Background(), cfg, conn)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			srv := httptest.NewServer(httpapi.NewServer(cfg, h.Handler, h.Observer).Handler)
			t.Cleanup(srv.Close)

			const workers = 16
			const perWorker = 15

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						target := targets[(w+i)%len(targets)]
						resp, err := http.Get(srv.URL + target)
						if err != nil {
							t.Errorf("GET %s: %v", target, err)
							return
						}
						_, _ = io.Copy(io.Discard, resp.Body)
						_ = resp.Body.Close()
						if resp.StatusCode != http.StatusOK {
							t.Errorf("GET %s: status %d", target, resp.StatusCode)
						}
					}
				}(w)
			}
			wg.Wait()
		})
	}
}
