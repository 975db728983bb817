package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/expressup/internal/repository"
)

// Service remembers logins between runs.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Load returns the identity remembered for site.
func (s *Service) Load(ctx context.Context, site string) (*Identity, error) {
	site = normalizeSite(site)
	if site == "" {
		return nil, ErrInvalidInput
	}
	id, err := s.repo.Get(ctx, site)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	return id, nil
}

// Remember stores the login name and, when given, the auth cookie for site.
// A nil cookie keeps only the login name.
func (s *Service) Remember(ctx context.Context, site, userLogin string, cookie *http.Cookie) error {
	site = normalizeSite(site)
	if site == "" || strings.TrimSpace(userLogin) == "" {
		return ErrInvalidInput
	}
	id := &Identity{
		Site:      site,
		UserLogin: strings.TrimSpace(userLogin),
		UpdatedAt: time.Now().UTC(),
	}
	if cookie != nil {
		id.CookieName = cookie.Name
		id.CookieValue = cookie.Value
		id.CookieExpires = cookie.Expires.UTC()
	}
	if err := s.repo.Save(ctx, id); err != nil {
		return fmt.Errorf("saving identity: %w", err)
	}
	s.logger.Info("identity remembered", "site", site, "user", id.UserLogin, "with_cookie", cookie != nil)
	return nil
}

// Forget removes whatever is remembered for site. Forgetting nothing is not an error.
func (s *Service) Forget(ctx context.Context, site string) error {
	site = normalizeSite(site)
	if site == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, site); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting identity: %w", err)
	}
	return nil
}

func normalizeSite(site string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(site)), "/")
}
