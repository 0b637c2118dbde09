// Package auth owns the OAuth credential lifecycle for the upload services:
// first-use interactive authorization, silent refresh, and durable token
// persistence.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bookcast/internal/core/domain"
)

// Service identifiers the manager knows how to authorize.
const (
	ServiceYouTube = "youtube"
	ServiceDrive   = "drive"
)

var serviceScopes = map[string][]string{
	ServiceYouTube: {"https://www.googleapis.com/auth/youtube.upload"},
	ServiceDrive:   {"https://www.googleapis.com/auth/drive.file"},
}

// AuthorizeFunc completes the interactive part of the authorization-code
// flow: it presents authURL to the user and returns the code they obtained.
type AuthorizeFunc func(ctx context.Context, authURL string) (string, error)

// Manager hands out authenticated HTTP clients per service. Tokens are
// loaded from the store, refreshed silently when expired, and every refresh
// is persisted. A revoked refresh token surfaces domain.ErrAuthExpired and
// is never retried.
type Manager struct {
	configs   map[string]*oauth2.Config
	store     TokenStore
	authorize AuthorizeFunc
	logger    *log.Logger

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewManager builds a Manager from Google client-secret JSON, registering
// one config per known service scope.
func NewManager(secretJSON []byte, store TokenStore, authorize AuthorizeFunc, logger *log.Logger) (*Manager, error) {
	configs := make(map[string]*oauth2.Config, len(serviceScopes))
	for service, scopes := range serviceScopes {
		cfg, err := google.ConfigFromJSON(secretJSON, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secret for %s: %w", service, err)
		}
		configs[service] = cfg
	}
	return NewManagerWithConfigs(configs, store, authorize, logger), nil
}

// NewManagerWithConfigs builds a Manager from explicit OAuth configs.
func NewManagerWithConfigs(configs map[string]*oauth2.Config, store TokenStore, authorize AuthorizeFunc, logger *log.Logger) *Manager {
	if authorize == nil {
		authorize = PromptAuthCode
	}
	return &Manager{
		configs:   configs,
		store:     store,
		authorize: authorize,
		logger:    logger,
		sources:   make(map[string]oauth2.TokenSource),
	}
}

// Client returns a non-expired authenticated HTTP client for the named
// service, running the interactive flow on first use.
func (m *Manager) Client(ctx context.Context, service string) (*http.Client, error) {
	ts, err := m.tokenSource(ctx, service)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// tokenSource returns the cached source for a service, building it on first
// use. The source is wrapped in ReuseTokenSource so back-to-back calls never
// trigger more than one refresh round-trip.
func (m *Manager) tokenSource(ctx context.Context, service string) (oauth2.TokenSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ts, ok := m.sources[service]; ok {
		return ts, nil
	}
	cfg, ok := m.configs[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	tok, err := m.store.Load(service)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		tok, err = m.runAuthFlow(ctx, service, cfg)
		if err != nil {
			return nil, err
		}
	}

	ts := oauth2.ReuseTokenSource(tok, &persistingTokenSource{
		service: service,
		store:   m.store,
		inner:   cfg.TokenSource(ctx, tok),
		last:    tok,
	})
	m.sources[service] = ts
	return ts, nil
}

func (m *Manager) runAuthFlow(ctx context.Context, service string, cfg *oauth2.Config) (*oauth2.Token, error) {
	m.logger.Printf("[AUTH] no stored token for %s, starting authorization flow", service)

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := m.authorize(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("authorization for %s: %w", service, err)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange for %s: %w", service, err)
	}
	if err := m.store.Save(service, tok); err != nil {
		return nil, err
	}
	m.logger.Printf("[AUTH] stored new token for %s", service)
	return tok, nil
}

// persistingTokenSource writes every refreshed token to the store before
// handing it out, so a crash after refresh never loses the new token.
type persistingTokenSource struct {
	service string
	store   TokenStore
	inner   oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.inner.Token()
	if err != nil {
		return nil, mapTokenError(err)
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := s.store.Save(s.service, tok); err != nil {
			return nil, err
		}
		s.last = tok
	}
	return tok, nil
}

// mapTokenError surfaces an invalid or revoked refresh token as
// domain.ErrAuthExpired so callers know re-authorization is required.
func mapTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode == "invalid_grant" ||
			(rerr.Response != nil && rerr.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%w: %v", domain.ErrAuthExpired, err)
		}
	}
	return err
}

// PromptAuthCode is the default AuthorizeFunc: print the URL, read the code
// from stdin.
func PromptAuthCode(ctx context.Context, authURL string) (string, error) {
	fmt.Printf("Open the following URL in your browser, approve access, and paste the code here:\n\n  %s\n\nCode: ", authURL)
	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return "", fmt.Errorf("reading authorization code: %w", err)
	}
	return code, nil
}
