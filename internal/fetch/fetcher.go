// Package fetch implements the hardened HTML fetcher used by URL import:
// request-forgery validation of every hop, manual redirect handling, and
// response size and content-type caps, all behind stable error codes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher performs policy-checked GETs of recipe pages.
type Fetcher struct {
	client   *http.Client
	resolver Resolver
	cfg      *Config
	logger   *slog.Logger
}

// New creates a Fetcher. The underlying client never follows redirects on
// its own; every hop is re-validated by Fetch.
func New(cfg *Config, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		resolver: net.DefaultResolver,
		cfg:      cfg,
		logger:   logger.With("system", "fetch"),
	}
}

// WithResolver replaces the DNS resolver. Used by tests.
func (f *Fetcher) WithResolver(r Resolver) *Fetcher {
	f.resolver = r
	return f
}

// WithTransport replaces the HTTP transport. Used by tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) *Fetcher {
	f.client.Transport = rt
	return f
}

// Fetch GETs rawURL and returns the HTML body together with the final URL
// after redirects. All hops share one wall-clock deadline.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	body, _, finalURL, err := f.fetch(ctx, rawURL, false)
	return string(body), finalURL, err
}

// FetchResource GETs a non-HTML asset (a recipe image discovered during
// extraction) under the same address policy, redirect handling, and size
// caps. Returns the bytes and the reported content type.
func (f *Fetcher) FetchResource(ctx context.Context, rawURL string) ([]byte, string, error) {
	body, contentType, _, err := f.fetch(ctx, rawURL, true)
	return body, contentType, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, binary bool) ([]byte, string, string, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", "", newError(CodeInvalidURL, "parse %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.TimeoutDuration())
	defer cancel()

	for hop := 0; ; hop++ {
		if hop > f.cfg.MaxRedirects {
			return nil, "", "", newError(CodeTooManyRedirects, "more than %d redirects", f.cfg.MaxRedirects)
		}

		if err := validateTarget(ctx, f.resolver, target); err != nil {
			return nil, "", "", err
		}

		resp, err := f.get(ctx, target)
		if err != nil {
			return nil, "", "", f.classifyTransport(ctx, target, err)
		}

		if location := redirectLocation(resp); location != "" {
			resp.Body.Close()

			next, err := target.Parse(location)
			if err != nil {
				return nil, "", "", newError(CodeInvalidURL, "redirect target %q", location)
			}

			f.logger.Debug("following redirect", "from", target.String(), "to", next.String(), "hop", hop+1)
			target = next
			continue
		}

		body, contentType, err := f.readBody(resp, binary)
		if err != nil {
			return nil, "", "", err
		}
		return body, contentType, target.String(), nil
	}
}

func (f *Fetcher) get(ctx context.Context, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7")

	return f.client.Do(req)
}

func (f *Fetcher) readBody(resp *http.Response, binary bool) ([]byte, string, error) {
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if !binary && contentType != "" && !htmlContentType(contentType) {
		return nil, "", newError(CodeUnsupportedType, "content type %q", contentType)
	}

	max := f.cfg.MaxBodyBytes()
	if resp.ContentLength > max {
		return nil, "", newError(CodeResponseTooLarge, "content length %d exceeds cap %d", resp.ContentLength, max)
	}

	// cap the decoded length too: Content-Length lies or is absent often enough
	body, err := io.ReadAll(io.LimitReader(resp.Body, max+1))
	if err != nil {
		return nil, "", &Error{Code: CodeNetwork, Message: "read body", Err: err}
	}
	if int64(len(body)) > max {
		return nil, "", newError(CodeResponseTooLarge, "body exceeds cap %d", max)
	}

	return body, contentType, nil
}

func (f *Fetcher) classifyTransport(ctx context.Context, target *url.URL, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return &Error{Code: CodeTimeout, Message: fmt.Sprintf("fetch %s", target.Host), Err: err}
	}
	return &Error{Code: CodeNetwork, Message: fmt.Sprintf("fetch %s", target.Host), Err: err}
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(CodeAccessDenied, "status %d", status)
	case status == http.StatusNotFound:
		return newError(CodeNotFound, "status %d", status)
	case status >= 400 && status < 500:
		return newError(CodeClientError, "status %d", status)
	case status >= 500:
		return newError(CodeServerError, "status %d", status)
	default:
		return newError(CodeClientError, "unexpected status %d", status)
	}
}

func redirectLocation(resp *http.Response) string {
	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return ""
	}
	return resp.Header.Get("Location")
}

func htmlContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml") ||
		strings.Contains(ct, "text/plain")
}
