// Package express talks to the Express design service. A Client owns one
// session: the auth cookie and the anti-forgery token never leave it except
// through AuthCookie.
package express

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// AuthCookieName is the cookie the service issues on login.
const AuthCookieName = "autodontix"

// SessionMargin is the minimum remaining lifetime for a stored cookie to be tried.
const SessionMargin = 15 * time.Minute

const (
	pathToken   = "api/xsrf/get/"
	pathPing    = "Home/Ping"
	pathLogin   = "Home/LoginApi"
	pathLogout  = "home/logout/"
	pathStatus  = "api/Results/ForOrder"
	pathFilter  = "api/Qualification/Filter"
	pathQualify = "api/Qualification/Qualify"
	pathUpload  = "api/Streaming/Upload/"
	pathInspect = "Inspect/"

	maxBody = 4 << 20
)

// Client is a session with one Express site. It is safe for concurrent use,
// though callers normally drive it from a single goroutine.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	auth      *http.Cookie
	tokenName string
	token     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for transport. A cookie jar is added when hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for cookie expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an anonymous session with the site at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parsing base url: %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:   base,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the site address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// InspectURL is the page where a reviewable design is shown.
func (c *Client) InspectURL(id string) string {
	return c.endpoint(pathInspect + id)
}

func (c *Client) endpoint(ref string) string {
	return c.base.ResolveReference(&url.URL{Path: ref}).String()
}

func (c *Client) get(ctx context.Context, ref string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(ref), nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// post sends a state-changing request with the anti-forgery header attached,
// fetching a token first if the session has none yet.
func (c *Client) post(ctx context.Context, ref, contentType string, body io.Reader) (*http.Response, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(ref), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if name, token := c.tokenHeader(); name != "" {
		req.Header.Set(name, token)
	}
	return c.http.Do(req)
}

func (c *Client) postForm(ctx context.Context, ref string, form url.Values) (*http.Response, error) {
	return c.post(ctx, ref, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}
