package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"tunereel/pkg/cache"
	"tunereel/pkg/db"
	"tunereel/pkg/tracker"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "client_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return New(cache.NewSQLiteCache(d), tracker.New(), Options{
		Timeout:   5 * time.Second,
		Retries:   3,
		BaseDelay: 10 * time.Millisecond,
	})
}

func TestGet_Sequential(t *testing.T) {
	// Handler sleeps to prove sequential execution per provider
	var conc int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&conc, 1)
		defer atomic.AddInt32(&conc, -1)

		if current > 1 {
			t.Errorf("Concurrency detected! Expected sequential.")
		}
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(200)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	client := newTestClient(t)

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if _, err := client.Get(context.Background(), svr.URL, ""); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
}

func TestGet_Retry(t *testing.T) {
	attempts := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(429)
			return
		}
		w.WriteHeader(200)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	client := newTestClient(t)

	body, err := client.Get(context.Background(), svr.URL, "")
	if err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}
	if string(body) != "success" {
		t.Errorf("Expected 'success', got '%s'", string(body))
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestGet_CacheHitSkipsNetwork(t *testing.T) {
	hits := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(200)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer svr.Close()

	client := newTestClient(t)

	if _, err := client.Get(context.Background(), svr.URL, "key1"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Get(context.Background(), svr.URL, "key1"); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Errorf("expected 1 network hit, got %d", hits)
	}
}

func TestGet_StatusError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"File not found"}`, http.StatusNotFound)
	}))
	defer svr.Close()

	client := newTestClient(t)

	_, err := client.Get(context.Background(), svr.URL, "")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	se, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Code != 404 {
		t.Errorf("expected code 404, got %d", se.Code)
	}
}
