package tangleweb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSource struct{}

func (fakeSource) RoomName() string     { return "arena-deadbeef" }
func (fakeSource) PeerCount() int       { return 2 }
func (fakeSource) CurrentTime() float64 { return 12.5 }
func (fakeSource) State() string        { return "connected" }

func TestHealthz(t *testing.T) {
	s := New(":0", nil, fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusReflectsSource(t *testing.T) {
	s := New(":0", nil, fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["room"] != "arena-deadbeef" {
		t.Fatalf("room = %v", body["room"])
	}
	if body["state"] != "connected" {
		t.Fatalf("state = %v", body["state"])
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := New(":0", nil, fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
