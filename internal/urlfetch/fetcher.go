package urlfetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"brandkit/internal/policydoc"
	"brandkit/internal/security"
)

var (
	ErrURLBlocked    = errors.New("url blocked by security policy")
	ErrFetchTooLarge = errors.New("response body exceeds maximum size")
)

const userAgent = "brandkit-verify/1.0"

// Result describes a reachable policy page.
type Result struct {
	URL         string
	FinalURL    string
	Status      int
	ContentType string
	Title       string
	Words       int
	Hash        string
}

// Fetcher downloads policy pages through a URL guard. The zero value is
// not usable; call New.
type Fetcher struct {
	client   *http.Client
	validate func(ctx context.Context, raw string) error
	maxBytes int64
}

type Option func(*Fetcher)

// WithClient replaces the HTTP client. Its CheckRedirect is overridden.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithValidator replaces the URL guard, for tests against local servers.
func WithValidator(fn func(ctx context.Context, raw string) error) Option {
	return func(f *Fetcher) { f.validate = fn }
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: security.DefaultFetchTimeout},
		validate: security.ValidateFetchURL,
		maxBytes: security.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	client := *f.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= security.DefaultMaxRedirects {
			return errors.New("too many redirects")
		}
		if err := f.validate(req.Context(), req.URL.String()); err != nil {
			return errors.Join(ErrURLBlocked, err)
		}
		return nil
	}
	f.client = &client
	return f
}

// Fetch downloads rawURL and extracts the page title and word count. A
// non-2xx status is an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if err := f.validate(ctx, rawURL); err != nil {
		return Result{}, errors.Join(ErrURLBlocked, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, application/pdf;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	res := Result{
		URL:         rawURL,
		FinalURL:    normalizeURL(resp.Request.URL),
		Status:      resp.StatusCode,
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return res, err
	}
	if int64(len(body)) > f.maxBytes {
		return res, ErrFetchTooLarge
	}
	sum := sha256.Sum256(body)
	res.Hash = hex.EncodeToString(sum[:])

	var text string
	if isPDF(res.ContentType, res.FinalURL) {
		res.Title = path.Base(resp.Request.URL.Path)
		text, err = policydoc.ExtractPDF(body)
	} else {
		res.Title, text, err = policydoc.ExtractHTML(body)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", res.FinalURL, err)
	}
	res.Words = len(strings.Fields(text))
	return res, nil
}

func isPDF(contentType, finalURL string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == "application/pdf" || mt == "application/x-pdf" {
			return true
		}
	}
	parsed, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(parsed.Path), ".pdf")
}

func normalizeURL(parsed *url.URL) string {
	if parsed == nil {
		return ""
	}
	u := *parsed
	u.Fragment = ""
	return u.String()
}
