package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"duckledger/internal/core"
)

type echoHandler struct {
	lastOwner core.Owner
	lastText  string
}

func (h *echoHandler) Handle(_ context.Context, owner core.Owner, text string) string {
	h.lastOwner = owner
	h.lastText = text
	return "ok: " + text
}

func newTestServer(t *testing.T) (*httptest.Server, *echoHandler) {
	t.Helper()
	h := &echoHandler{}
	srv := httptest.NewServer(NewServer(":0", h).Handler)
	t.Cleanup(srv.Close)
	return srv, h
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestPostMessage(t *testing.T) {
	srv, h := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"owner": 42, "text": "Food-500"})
	resp, err := http.Post(srv.URL+"/api/v1/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Reply != "ok: Food-500" {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if h.lastOwner != 42 || h.lastText != "Food-500" {
		t.Fatalf("handler saw owner=%d text=%q", h.lastOwner, h.lastText)
	}
}

func TestPostMessageValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"missing owner", http.MethodPost, `{"text":"hi"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, `{"owner":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+"/api/v1/messages", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}
