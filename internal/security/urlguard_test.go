package security

import (
	"context"
	"errors"
	"testing"
)

func TestValidateFetchURLRejectsUnsafeTargets(t *testing.T) {
	testCases := []string{
		"ftp://zikalyze.com/privacy.html",
		"file:///etc/passwd",
		"http://localhost/admin",
		"http://intranet.local/privacy",
		"http://127.0.0.1:8080",
		"http://10.0.0.1",
		"http://192.168.1.1",
		"http://169.254.10.20",
		"http://100.64.0.10",
		"http://[::1]/privacy.html",
	}
	for _, candidate := range testCases {
		if err := ValidateFetchURL(context.Background(), candidate); err == nil {
			t.Fatalf("expected blocked URL: %s", candidate)
		}
	}
}

func TestValidateFetchURLMarksPrivateHosts(t *testing.T) {
	err := ValidateFetchURL(context.Background(), "https://192.168.0.10/terms.html")
	if !errors.Is(err, ErrBlockedHost) {
		t.Fatalf("expected ErrBlockedHost, got %v", err)
	}
}

func TestValidateFetchURLAllowsPublicIP(t *testing.T) {
	if err := ValidateFetchURL(context.Background(), "https://1.1.1.1/privacy.html"); err != nil {
		t.Fatalf("expected URL to pass baseline guard, got: %v", err)
	}
}
