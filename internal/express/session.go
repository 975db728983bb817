package express

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CheckStillLoggedIn tries to resume a session from a stored auth cookie. It
// never returns an error: any failure leaves the client anonymous. Cookies that
// are misnamed, expired or within SessionMargin of expiry are rejected without
// contacting the server.
func (c *Client) CheckStillLoggedIn(ctx context.Context, stored *http.Cookie) bool {
	if stored == nil || stored.Name != AuthCookieName || stored.Value == "" {
		return false
	}
	if stored.Expires.IsZero() || stored.Expires.Sub(c.now()) < SessionMargin {
		return false
	}

	c.installAuth(stored)
	c.clearToken()
	if err := c.refreshToken(ctx); err != nil {
		c.logger.Info("stored session rejected", "error", err)
		c.invalidateAuth()
		return false
	}

	resp, err := c.get(ctx, pathPing)
	if err != nil {
		c.logger.Info("stored session rejected", "error", err)
		c.invalidateAuth()
		return false
	}
	defer drain(resp)
	if !success(resp.StatusCode) {
		c.logger.Info("stored session rejected", "status", resp.StatusCode)
		c.invalidateAuth()
		return false
	}
	c.captureAuth(resp)
	return true
}

// Login posts credentials. A rejected login returns false with no error; errors
// are reserved for transport and anti-forgery failures.
func (c *Client) Login(ctx context.Context, identifier, secret string, remember bool) (bool, error) {
	c.clearToken()
	if err := c.refreshToken(ctx); err != nil {
		return false, fmt.Errorf("logging in: %w", err)
	}

	form := url.Values{
		"email":    {identifier},
		"password": {secret},
		"remember": {strconv.FormatBool(remember)},
	}
	resp, err := c.postForm(ctx, pathLogin, form)
	if err != nil {
		return false, fmt.Errorf("logging in: %w", err)
	}
	drain(resp)
	if !success(resp.StatusCode) {
		c.logger.Info("login rejected", "status", resp.StatusCode)
		return false, nil
	}
	c.captureAuth(resp)

	// The token is bound to the identity it was issued for.
	c.clearToken()
	if err := c.refreshToken(ctx); err != nil {
		return false, fmt.Errorf("refreshing token after login: %w", err)
	}
	c.logger.Info("logged in", "remember", remember)
	return true, nil
}

// Logout ends the session on the server. Local session state is cleared even
// when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		c.clearToken()
		c.invalidateAuth()
	}()

	resp, err := c.get(ctx, pathLogout)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	drain(resp)
	if !success(resp.StatusCode) {
		return &StatusError{Op: "logout", Code: resp.StatusCode}
	}
	return nil
}

// AuthCookie returns the name, value and expiry of the held auth cookie, or nil
// when the session is anonymous.
func (c *Client) AuthCookie() *http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.auth == nil {
		return nil
	}
	return &http.Cookie{Name: c.auth.Name, Value: c.auth.Value, Expires: c.auth.Expires}
}

func (c *Client) installAuth(cookie *http.Cookie) {
	installed := &http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     "/",
		Expires:  cookie.Expires,
		Secure:   cookie.Secure,
		HttpOnly: cookie.HttpOnly,
	}
	c.http.Jar.SetCookies(c.base, []*http.Cookie{installed})

	c.mu.Lock()
	c.auth = installed
	c.mu.Unlock()
}

// captureAuth records the auth cookie from a response. The jar does not expose
// expiry, so it is taken from Set-Cookie directly.
func (c *Client) captureAuth(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != AuthCookieName {
			continue
		}
		captured := &http.Cookie{Name: cookie.Name, Value: cookie.Value, Expires: cookie.Expires}
		if cookie.MaxAge > 0 {
			captured.Expires = c.now().Add(time.Duration(cookie.MaxAge) * time.Second)
		}
		c.mu.Lock()
		c.auth = captured
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.auth != nil {
		return
	}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == AuthCookieName {
			c.auth = &http.Cookie{Name: cookie.Name, Value: cookie.Value}
			return
		}
	}
}

func (c *Client) invalidateAuth() {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: AuthCookieName, Path: "/", MaxAge: -1}})

	c.mu.Lock()
	c.auth = nil
	c.mu.Unlock()
}
