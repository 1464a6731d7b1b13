package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vntrieu/mafia/internal/httpapi/handler"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		store      handler.Pinger
		wantStatus int
		wantBody   map[string]string
	}{
		{"no store", nil, http.StatusOK, map[string]string{"status": "ok"}},
		{"store reachable", fakePinger{}, http.StatusOK, map[string]string{"status": "ok", "store": "ok"}},
		{"store down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable", "store": "unreachable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Health{Store: tt.store}.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if len(body) != len(tt.wantBody) {
				t.Fatalf("expected body %v, got %v", tt.wantBody, body)
			}
			for k, v := range tt.wantBody {
				if body[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, body[k])
				}
			}
		})
	}
}
