package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/auth"
	"github.com/runemikla/hallaien-2/internal/config"
)

type stubGateway struct {
	signedURL string
	err       error
}

func (g *stubGateway) SignedURL(context.Context, string) (string, error) {
	return g.signedURL, g.err
}

func newTestServer() *Server {
	cfg := config.Config{
		JWTSecret: "test-secret",
		JWTIssuer: "test-issuer",
	}
	return NewServer(cfg, zap.NewNop(), nil, nil, &stubGateway{signedURL: "wss://voice.example/abc"}, nil)
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	value, err := auth.NewAccessToken("test-secret", "test-issuer", time.Minute, auth.Claims{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return value
}

func doJSON(t *testing.T, handler http.Handler, method, path, bearer string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal error: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealth(t *testing.T) {
	recorder := doJSON(t, newTestServer().Router(), http.MethodGet, "/health", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	recorder := doJSON(t, newTestServer().Router(), http.MethodGet, "/assistants", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	recorder := doJSON(t, newTestServer().Router(), http.MethodGet, "/assistants", "not-a-token", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestTeacherRoutesForbiddenForStudents(t *testing.T) {
	router := newTestServer().Router()
	bearer := token(t, "33333333-3333-3333-3333-333333333333", "student")
	recorder := doJSON(t, router, http.MethodGet, "/assistants", bearer, nil)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestStudentRoutesForbiddenForTeachers(t *testing.T) {
	router := newTestServer().Router()
	bearer := token(t, "22222222-2222-2222-2222-222222222222", "teacher")
	recorder := doJSON(t, router, http.MethodPost, "/redeem", bearer, map[string]string{"code": "AB12CD"})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestSignedURLRequiresAgentID(t *testing.T) {
	router := newTestServer().Router()
	bearer := token(t, "22222222-2222-2222-2222-222222222222", "teacher")
	recorder := doJSON(t, router, http.MethodPost, "/sessions/signed-url", bearer, map[string]string{"agentId": "  "})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"":            "",
		"Bearer":      "",
		"Bearer  a b": "a b",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("bearerToken(%q) = %q, expected %q", header, got, expect)
		}
	}
}

func TestHoursLeft(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	if got := hoursLeft(now.Add(90*time.Minute), now); got != 2 {
		t.Fatalf("expected 2 hours (rounded), got %d", got)
	}
	if got := hoursLeft(now.Add(20*time.Minute), now); got != 0 {
		t.Fatalf("expected 0 hours, got %d", got)
	}
	if got := hoursLeft(now.Add(-time.Hour), now); got != 0 {
		t.Fatalf("expected 0 for past expiry, got %d", got)
	}
}

func TestParseUUIDs(t *testing.T) {
	ids, err := parseUUIDs([]string{"11111111-1111-1111-1111-111111111111"})
	if err != nil || len(ids) != 1 {
		t.Fatalf("expected one id, got %v (%v)", ids, err)
	}
	if _, err := parseUUIDs([]string{"nope"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
