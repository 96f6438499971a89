package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCheckPrerequisites(t *testing.T) {
	tempDir := t.TempDir()

	// Save original CWD and restore after test
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalWd)

	if err := os.Chdir(tempDir); err != nil {
		t.Fatal(err)
	}

	m := &Manager{}
	if m.checkPrerequisites() {
		t.Error("checkPrerequisites() = true in empty directory, want false")
	}

	os.Mkdir("configs", 0755)
	os.WriteFile(filepath.Join("configs", "tunereel.yaml"), []byte(""), 0644)

	if !m.checkPrerequisites() {
		t.Error("checkPrerequisites() = false with config present, want true")
	}
}

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":1848", "127.0.0.1:1848"},
		{"localhost:1848", "127.0.0.1:1848"},
		{"192.168.1.5:1848", "192.168.1.5:1848"},
	}
	for _, tt := range tests {
		m := &Manager{serverAddr: tt.addr}
		if got := m.resolveAddr(); got != tt.want {
			t.Errorf("resolveAddr(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestIsServerReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/version" {
			fmt.Fprint(w, `{"version":"test"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	m := &Manager{serverAddr: strings.TrimPrefix(srv.URL, "http://")}
	if !m.isServerReady() {
		t.Error("isServerReady() = false against live server, want true")
	}

	srv.Close()
	deadline := time.Now().Add(2 * time.Second)
	for m.isServerReady() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if m.isServerReady() {
		t.Error("isServerReady() = true after server closed, want false")
	}
}
