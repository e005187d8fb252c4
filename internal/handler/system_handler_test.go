package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/database"
	"github.com/shams-academy/assessment/internal/response"
)

func pingResult(name string, err error) database.Check {
	return database.Check{Name: name, Ping: func(context.Context) error { return err }}
}

func fixedStats(live int, depth int64, depthErr error) SystemStats {
	return SystemStats{
		LiveAttempts: func() int { return live },
		QueueDepth:   func(context.Context) (int64, error) { return depth, depthErr },
		DBConns:      func() int32 { return 4 },
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     []database.Check
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all up",
			checks:     []database.Check{pingResult("postgres", nil), pingResult("redis", nil)},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name: "redis down",
			checks: []database.Check{
				pingResult("postgres", nil),
				pingResult("redis", errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"postgres": "ok",
				"redis":    "dial tcp 127.0.0.1:6379: connect: connection refused",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newSystemHandler(tc.checks, fixedStats(0, 0, nil), time.Hour, zerolog.Nop())
			r := gin.New()
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.wantStatus, w.Body)
			}

			var body struct {
				Data struct {
					Checks map[string]string `json:"checks"`
				} `json:"data"`
				Error *response.ErrorBody `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			for dep, want := range tc.wantChecks {
				if got := body.Data.Checks[dep]; got != want {
					t.Errorf("checks[%s] = %q, want %q", dep, got, want)
				}
			}
			if (body.Error != nil) != (tc.wantStatus != http.StatusOK) {
				t.Errorf("error body = %+v", body.Error)
			}
		})
	}
}

func TestSystemMetricsSSE(t *testing.T) {
	h := newSystemHandler(nil, fixedStats(3, 0, errors.New("redis unavailable")), 10*time.Millisecond, zerolog.Nop())
	r := gin.New()
	r.GET("/metrics", h.SystemMetricsSSE)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/metrics", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Two events: the one sent on connect and one from the ticker.
	reader := bufio.NewReader(resp.Body)
	for events := 0; events < 2; {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read after %d events: %v", events, err)
		}
		payload, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
		if !ok {
			continue
		}
		var m systemMetrics
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatal(err)
		}
		if m.LiveAttempts != 3 || m.DBConns != 4 || m.QueueResults != -1 || m.Goroutines == 0 {
			t.Errorf("metrics = %+v", m)
		}
		events++
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		42 * time.Second:              "0m 42s",
		3*time.Hour + 5*time.Minute:   "3h 5m 0s",
		50*time.Hour + 90*time.Second: "2d 2h 1m 30s",
	}
	for in, want := range tests {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%s) = %q, want %q", in, got, want)
		}
	}
}
