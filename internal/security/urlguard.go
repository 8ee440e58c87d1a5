package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBodyBytes = 5 * 1024 * 1024
	DefaultMaxRedirects = 5

	resolveTimeout = 2 * time.Second
)

var ErrBlockedHost = errors.New("host is not publicly routable")

// ValidateFetchURL accepts only http(s) URLs whose host is public. Names
// are resolved and every address must pass; policy pages are expected on
// the open internet, never on the build machine's network.
func ValidateFetchURL(ctx context.Context, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed", parsed.Scheme)
	}
	host := parsed.Hostname()
	if host == "" {
		return errors.New("missing host")
	}
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if blockedAddr(addr) {
			return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, addr := range addrs {
		if blockedAddr(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrBlockedHost, host, addr)
		}
	}
	return nil
}

// cgnat is the shared address space of RFC 6598.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsUnspecified() ||
		addr.IsMulticast() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		cgnat.Contains(addr)
}
