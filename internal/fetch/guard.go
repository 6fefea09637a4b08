package fetch

import (
	"context"
	"net"
	"net/url"
)

// Resolver abstracts DNS resolution for address validation. Satisfied by
// *net.Resolver.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// validateTarget checks a parsed URL against the request-forgery policy:
// only http(s) schemes, and no hostname that resolves to a private,
// loopback, or link-local address. DNS failure is not treated as a policy
// violation; the request simply fails at the HTTP layer afterwards.
func validateTarget(ctx context.Context, resolver Resolver, u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return newError(CodeInvalidURL, "unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return newError(CodeInvalidURL, "missing host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return newError(CodeBlockedAddress, "address %s not allowed", ip)
		}
		return nil
	}

	ips, err := resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		// tolerated: not an SSRF signal
		return nil
	}

	for _, ip := range ips {
		if isBlockedIP(ip) {
			return newError(CodeBlockedAddress, "host %s resolves to blocked address %s", host, ip)
		}
	}
	return nil
}

// isBlockedIP reports whether the address falls in a range the fetcher must
// never contact: RFC1918, loopback, link-local (v4 and v6), unique-local
// (fc00::/7), and the unspecified address.
func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
