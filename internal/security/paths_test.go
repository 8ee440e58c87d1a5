package security

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		in      string
		want    string
		allowed bool
	}{
		{"public/logo.png", filepath.Join(root, "public", "logo.png"), true},
		{"./src/../public/og.png", filepath.Join(root, "public", "og.png"), true},
		{filepath.Join(root, "a.png"), filepath.Join(root, "a.png"), true},
		{"../escape.png", "", false},
		{"public/../../escape.png", "", false},
		{filepath.Join(filepath.Dir(root), "sibling.png"), "", false},
	}
	for _, tc := range cases {
		got, err := ResolveWithinRoot(root, tc.in)
		if tc.allowed {
			if err != nil || got != tc.want {
				t.Fatalf("%q: got %q err=%v, want %q", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("%q: expected ErrOutsideRoot, got %q err=%v", tc.in, got, err)
		}
	}
}

func TestResolveWithinRootRejectsEmpty(t *testing.T) {
	if _, err := ResolveWithinRoot(t.TempDir(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
