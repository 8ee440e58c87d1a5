package urlfetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func allowAll(context.Context, string) error { return nil }

func TestFetchRejectsLocalhost(t *testing.T) {
	_, err := New().Fetch(context.Background(), "http://127.0.0.1/privacy.html")
	if err == nil {
		t.Fatal("expected localhost URL to be blocked")
	}
	if !errors.Is(err, ErrURLBlocked) {
		t.Fatalf("expected ErrURLBlocked, got %v", err)
	}
}

func TestFetchExtractsPolicyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Privacy Policy</title></head><body><p>We keep nothing.</p></body></html>`))
	}))
	defer srv.Close()

	res, err := New(WithValidator(allowAll)).Fetch(context.Background(), srv.URL+"/privacy.html#top")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Title != "Privacy Policy" || res.Words != 3 || res.Status != http.StatusOK {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.FinalURL != srv.URL+"/privacy.html" {
		t.Fatalf("expected fragment stripped, got %q", res.FinalURL)
	}
	if len(res.Hash) != 64 {
		t.Fatalf("expected sha256 hex, got %q", res.Hash)
	}
}

func TestFetchReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	res, err := New(WithValidator(allowAll)).Fetch(context.Background(), srv.URL+"/terms.html")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if res.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", res.Status)
	}
}

func TestFetchBlocksRedirectTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/privacy.html" {
			http.Redirect(w, r, "/internal", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("<p>secret</p>"))
	}))
	defer srv.Close()

	calls := 0
	guard := func(_ context.Context, raw string) error {
		calls++
		if calls > 1 {
			return errors.New("redirect target rejected")
		}
		return nil
	}
	_, err := New(WithValidator(guard)).Fetch(context.Background(), srv.URL+"/privacy.html")
	if !errors.Is(err, ErrURLBlocked) {
		t.Fatalf("expected ErrURLBlocked for redirect, got %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	if !isPDF("application/pdf", "https://zikalyze.com/privacy") {
		t.Fatal("expected content type to win")
	}
	if !isPDF("", "https://zikalyze.com/privacy.PDF") {
		t.Fatal("expected extension fallback")
	}
	if isPDF("text/html", "https://zikalyze.com/privacy.html") {
		t.Fatal("html is not pdf")
	}
}
