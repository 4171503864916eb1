package mhwdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

func newTestClient(url string) *Client {
	c := NewClient(Options{BaseURL: url, RequestsPerSecond: 1000})
	c.backoff = time.Millisecond
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})

	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
	if c.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}
	if c.userAgent == "" {
		t.Error("userAgent is empty")
	}
	if got := c.ResourceURL(mhw.ResourceArmor); got != "https://mhw-db.com/armor" {
		t.Errorf("ResourceURL = %q", got)
	}
}

func TestClient_FetchResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/armor" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Leather Headgear"}]`))
	}))
	defer server.Close()

	body, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceArmor)
	if err != nil {
		t.Fatalf("FetchResource failed: %v", err)
	}
	if string(body) != `[{"id":1,"name":"Leather Headgear"}]` {
		t.Errorf("body was modified: %s", body)
	}
}

func TestClient_RejectsNonArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceSkills); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceCharms)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceWeapons); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceArmor)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestClient_BadRequestIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"message":"bad projection"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchResource(context.Background(), mhw.ResourceArmor)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(server.URL).FetchResource(ctx, mhw.ResourceArmor); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestRetryAfter(t *testing.T) {
	if d := retryAfter("2"); d != 2*time.Second {
		t.Errorf("retryAfter(2) = %v", d)
	}
	if d := retryAfter("soon"); d != 0 {
		t.Errorf("retryAfter(soon) = %v", d)
	}
}
