package express

import (
	"context"
	"encoding/json"
	"fmt"
)

type tokenData struct {
	Token     string `json:"token"`
	TokenName string `json:"tokenName"`
}

func (c *Client) refreshToken(ctx context.Context) error {
	resp, err := c.get(ctx, pathToken)
	if err != nil {
		return fmt.Errorf("requesting anti-forgery token: %w", err)
	}
	defer drain(resp)
	if !success(resp.StatusCode) {
		return &StatusError{Op: "anti-forgery token", Code: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	var td tokenData
	if err := json.Unmarshal(body, &td); err != nil {
		return fmt.Errorf("decoding anti-forgery token: %w: %w", ErrMalformedResponse, err)
	}
	if td.Token == "" || td.TokenName == "" {
		return ErrNoToken
	}

	c.mu.Lock()
	c.tokenName, c.token = td.TokenName, td.Token
	c.mu.Unlock()
	c.logger.Debug("anti-forgery token refreshed", "header", td.TokenName)
	return nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if name, _ := c.tokenHeader(); name != "" {
		return nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) tokenHeader() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenName, c.token
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.tokenName, c.token = "", ""
	c.mu.Unlock()
}
