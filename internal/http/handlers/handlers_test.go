// README: Handler tests for authentication and request validation.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	rallyhttp "rally/internal/http"
	"rally/internal/infra"
	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/modules/location"
	"rally/internal/modules/notify"
	"rally/internal/modules/ride"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

// buildTestRouter wires the full route table with the auth middleware.
// Services hold nil stores; that is safe for the requests below because
// every auth and body-validation check runs before any store access.
func buildTestRouter(verifier infra.TokenVerifier) http.Handler {
	gin.SetMode(gin.TestMode)
	attendees := attendee.NewService(nil, attendee.NewFeed())
	events := event.NewService(nil, nil)
	rides := ride.NewService(nil, nil)
	notifier := notify.NewService(nil, nil, nil, nil, nil, 5*time.Minute)
	locations := location.NewService(nil)
	srv := rallyhttp.NewServer(rallyhttp.ServerDeps{
		ServiceName: "rally-api-test",
		Verifier:    verifier,
		Attendees:   attendees,
		Events:      events,
		Rides:       rides,
		Notifier:    notifier,
		Location:    locations,
	})
	return srv.Routes()
}

func makeVerifier(uid string) *stubTokenVerifier {
	return &stubTokenVerifier{token: &infra.FirebaseToken{UID: uid, Claims: map[string]interface{}{}}}
}

func doRequest(r http.Handler, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_NoAuthRequired(t *testing.T) {
	r := buildTestRouter(&stubTokenVerifier{err: errors.New("never called")})
	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPI_Unauthenticated(t *testing.T) {
	r := buildTestRouter(&stubTokenVerifier{err: errors.New("no token")})
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/events"},
		{http.MethodPost, "/api/events/e1/rally-home"},
		{http.MethodPost, "/api/events/e1/rally-home/notify"},
		{http.MethodGet, "/api/events/e1/prompt"},
	}
	for _, p := range paths {
		w := doRequest(r, p.method, p.path, nil, "Bearer badtoken")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, w.Code)
		}
	}
}

func TestJoin_InvalidJSON(t *testing.T) {
	r := buildTestRouter(makeVerifier("user1"))
	req := httptest.NewRequest(http.MethodPost, "/api/events/e1/attendees", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDriverETA_InvalidCoordinates(t *testing.T) {
	r := buildTestRouter(makeVerifier("rider1"))
	w := doRequest(r, http.MethodGet, "/api/events/e1/drivers/d1/eta?lat=abc&lng=1", nil, "Bearer sometoken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
