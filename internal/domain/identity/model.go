package identity

import (
	"net/http"
	"time"
)

// Identity is the remembered login for one site.
type Identity struct {
	Site          string    `json:"site"`
	UserLogin     string    `json:"user_login"`
	CookieName    string    `json:"cookie_name"`
	CookieValue   string    `json:"-"`
	CookieExpires time.Time `json:"cookie_expires"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Cookie rebuilds the stored auth cookie, or nil when none is held.
func (i *Identity) Cookie() *http.Cookie {
	if i == nil || i.CookieName == "" || i.CookieValue == "" {
		return nil
	}
	return &http.Cookie{Name: i.CookieName, Value: i.CookieValue, Expires: i.CookieExpires}
}
