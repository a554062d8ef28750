package contentstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIPFSBackend_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v0/cat") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("arg") != "QmTest" {
			t.Fatalf("unexpected cid arg: %s", r.URL.Query().Get("arg"))
		}
		w.Write([]byte("batch contents"))
	}))
	defer srv.Close()

	backend := NewIPFSBackend(srv.URL)
	data, err := backend.Get(context.Background(), "QmTest")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "batch contents" {
		t.Errorf("Get() = %q", data)
	}
}

func TestIPFSBackend_Get_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewIPFSBackend(srv.URL)
	if _, err := backend.Get(context.Background(), "QmTest"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestIPFSBackend_Put(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v0/add") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		body, _ := io.ReadAll(file)
		if string(body) != "new batch" {
			t.Errorf("uploaded body = %q", body)
		}
		w.Write([]byte(`{"Hash":"QmNewCID"}`))
	}))
	defer srv.Close()

	backend := NewIPFSBackend(srv.URL)
	cid, err := backend.Put(context.Background(), []byte("new batch"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if cid != "QmNewCID" {
		t.Errorf("Put() = %s, want QmNewCID", cid)
	}
}

func TestIPFSBackend_Pin(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if !strings.HasPrefix(r.URL.Path, "/api/v0/pin/add") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"Pins":["QmTest"]}`))
	}))
	defer srv.Close()

	backend := NewIPFSBackend(srv.URL)
	if err := backend.Pin(context.Background(), "QmTest"); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if !called {
		t.Error("expected pin endpoint to be called")
	}
}

func TestIPFSBackend_Pin_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	backend := NewIPFSBackend(srv.URL)
	if err := backend.Pin(context.Background(), "QmTest"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
