package voice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversation/get_signed_url" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("agent_id"); got != "agent-1" {
			t.Fatalf("unexpected agent_id %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Fatalf("unexpected api key %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signed_url": "wss://voice.example/session/abc"}`))
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "test-key", 5*time.Second)
	signedURL, err := gateway.SignedURL(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("signed url error: %v", err)
	}
	if signedURL != "wss://voice.example/session/abc" {
		t.Fatalf("unexpected signed url %q", signedURL)
	}
}

func TestSignedURLUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "test-key", 5*time.Second)
	if _, err := gateway.SignedURL(context.Background(), "agent-1"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSignedURLEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gateway := NewGateway(server.URL, "test-key", 5*time.Second)
	if _, err := gateway.SignedURL(context.Background(), "agent-1"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
