package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func rangeServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var from, to int
		if _, err := fmt.Sscanf(r.Header.Get("Range"), "bytes=%d-%d", &from, &to); err != nil {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			_, _ = w.Write(payload)
			return
		}
		if to >= len(payload) {
			to = len(payload) - 1
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(payload[from : to+1])
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestService_downloadChunked(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 25)
	srv := rangeServer(t, payload)
	s := New(false, 32, srv.Client())
	ctx := context.Background()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	r, w := io.Pipe()
	go s.downloadChunked(ctx, req, w, int64(len(payload)))

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %d bytes, want %d in order", len(got), len(payload))
	}
}

func TestService_downloadChunked_unexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	s := New(false, 0, srv.Client())
	ctx := context.Background()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	r, w := io.Pipe()
	go s.downloadChunked(ctx, req, w, 100)

	_, err := io.ReadAll(r)
	var statusErr ErrUnexpectedStatusCode
	if !errors.As(err, &statusErr) || int(statusErr) != http.StatusForbidden {
		t.Errorf("ReadAll() error = %v, want status 403", err)
	}
}

func TestService_downloadOnce(t *testing.T) {
	payload := []byte(strings.Repeat("a", 77))
	srv := rangeServer(t, payload)
	s := New(false, 0, srv.Client())
	ctx := context.Background()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	r, w := io.Pipe()
	n, err := s.downloadOnce(ctx, req, w)
	if err != nil {
		t.Fatalf("downloadOnce() error = %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("content length = %d, want %d", n, len(payload))
	}
	got, _ := io.ReadAll(r)
	if !bytes.Equal(got, payload) {
		t.Errorf("body mismatch")
	}
}
