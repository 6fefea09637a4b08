package fetch

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
)

// fakeResolver maps hostnames to fixed addresses.
type fakeResolver struct {
	hosts map[string][]net.IP
}

func (r *fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	if ips, ok := r.hosts[host]; ok {
		return ips, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host}
}

// cannedTransport serves scripted responses keyed by URL, without dialing.
type cannedTransport struct {
	responses map[string]*http.Response
	requests  []string
}

func (t *cannedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.String()
	t.requests = append(t.requests, key)
	if resp, ok := t.responses[key]; ok {
		return resp, nil
	}
	return textResponse(http.StatusNotFound, "not found"), nil
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Header:        http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func redirectResponse(location string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusFound,
		Header: http.Header{
			"Location":     []string{location},
			"Content-Type": []string{"text/html"},
		},
		Body: io.NopCloser(strings.NewReader("")),
	}
}

func testFetcher(t *testing.T, transport *cannedTransport) *Fetcher {
	t.Helper()

	cfg := &Config{MaxBodySize: "1KB"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("config finalize: %v", err)
	}

	resolver := &fakeResolver{hosts: map[string][]net.IP{
		"recipes.test":  {net.ParseIP("93.184.216.34")},
		"internal.test": {net.ParseIP("10.0.0.5")},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger).WithResolver(resolver).WithTransport(transport)
}

func TestFetchSuccess(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/soep": textResponse(http.StatusOK, "<html>soep</html>"),
	}}
	f := testFetcher(t, transport)

	body, finalURL, err := f.Fetch(context.Background(), "https://recipes.test/soep")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if body != "<html>soep</html>" {
		t.Errorf("body = %q", body)
	}
	if finalURL != "https://recipes.test/soep" {
		t.Errorf("finalURL = %q", finalURL)
	}
}

func TestFetchPolicyViolations(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Code
	}{
		{"non-http scheme", "ftp://recipes.test/x", CodeInvalidURL},
		{"file scheme", "file:///etc/passwd", CodeInvalidURL},
		{"loopback literal", "http://127.0.0.1/admin", CodeBlockedAddress},
		{"private literal", "http://192.168.1.1/", CodeBlockedAddress},
		{"link-local literal", "http://169.254.169.254/metadata", CodeBlockedAddress},
		{"host resolving to private", "http://internal.test/", CodeBlockedAddress},
	}

	f := testFetcher(t, &cannedTransport{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.Fetch(context.Background(), tt.url)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := CodeOf(err); got != tt.want {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestFetchRedirectRevalidated(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/r": redirectResponse("http://internal.test/secret"),
	}}
	f := testFetcher(t, transport)

	_, _, err := f.Fetch(context.Background(), "https://recipes.test/r")
	if got := CodeOf(err); got != CodeBlockedAddress {
		t.Fatalf("code = %s, want BLOCKED_ADDRESS (err: %v)", got, err)
	}
	if len(transport.requests) != 1 {
		t.Errorf("blocked hop was requested anyway: %v", transport.requests)
	}
}

func TestFetchRelativeRedirect(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/old": redirectResponse("/new"),
		"https://recipes.test/new": textResponse(http.StatusOK, "<html>ok</html>"),
	}}
	f := testFetcher(t, transport)

	body, finalURL, err := f.Fetch(context.Background(), "https://recipes.test/old")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if finalURL != "https://recipes.test/new" {
		t.Errorf("finalURL = %q, want the post-redirect URL", finalURL)
	}
}

func TestFetchTooManyRedirects(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{}}
	for i := 0; i < 10; i++ {
		transport.responses["https://recipes.test/hop"] = redirectResponse("/hop")
	}
	f := testFetcher(t, transport)

	_, _, err := f.Fetch(context.Background(), "https://recipes.test/hop")
	if got := CodeOf(err); got != CodeTooManyRedirects {
		t.Fatalf("code = %s, want TOO_MANY_REDIRECTS (err: %v)", got, err)
	}
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Code
	}{
		{http.StatusUnauthorized, CodeAccessDenied},
		{http.StatusForbidden, CodeAccessDenied},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusTeapot, CodeClientError},
		{http.StatusBadGateway, CodeServerError},
	}

	for _, tt := range tests {
		transport := &cannedTransport{responses: map[string]*http.Response{
			"https://recipes.test/p": textResponse(tt.status, "nope"),
		}}
		f := testFetcher(t, transport)

		_, _, err := f.Fetch(context.Background(), "https://recipes.test/p")
		if got := CodeOf(err); got != tt.want {
			t.Errorf("status %d: code = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestFetchBodyTooLarge(t *testing.T) {
	big := strings.Repeat("x", 2048)
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/big": {
			StatusCode:    http.StatusOK,
			Header:        http.Header{"Content-Type": []string{"text/html"}},
			Body:          io.NopCloser(strings.NewReader(big)),
			ContentLength: -1,
		},
	}}
	f := testFetcher(t, transport)

	_, _, err := f.Fetch(context.Background(), "https://recipes.test/big")
	if got := CodeOf(err); got != CodeResponseTooLarge {
		t.Fatalf("code = %s, want RESPONSE_TOO_LARGE (err: %v)", got, err)
	}
}

func TestFetchNonHTMLContentType(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/feed": {
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/pdf"}},
			Body:       io.NopCloser(strings.NewReader("%PDF")),
		},
	}}
	f := testFetcher(t, transport)

	_, _, err := f.Fetch(context.Background(), "https://recipes.test/feed")
	if got := CodeOf(err); got != CodeUnsupportedType {
		t.Fatalf("code = %s, want UNSUPPORTED_CONTENT_TYPE (err: %v)", got, err)
	}
}

func TestFetchResourceAllowsBinary(t *testing.T) {
	transport := &cannedTransport{responses: map[string]*http.Response{
		"https://recipes.test/photo.jpg": {
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"image/jpeg"}},
			Body:       io.NopCloser(strings.NewReader("\xff\xd8\xff")),
		},
	}}
	f := testFetcher(t, transport)

	body, contentType, err := f.FetchResource(context.Background(), "https://recipes.test/photo.jpg")
	if err != nil {
		t.Fatalf("fetch resource failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q", contentType)
	}
	if len(body) != 3 {
		t.Errorf("body length = %d", len(body))
	}
}
