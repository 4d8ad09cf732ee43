// Package devauth provides a config-driven IdentityClient for local development.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/caquick/caquick-api/internal/data/cryptoutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

// DevCode is the authorization code the dev flow sends to its own callback.
const DevCode = "dev"

// Config controls the dev identity returned by every exchange.
// Subject and BackendBaseURL are required.
type Config struct {
	Subject        string
	Email          string
	EmailVerified  bool
	Name           string
	BackendBaseURL string
}

// Provider implements ports.IdentityClient without contacting any external provider.
// The authorization URL points straight back at our own callback with locally generated state.
// ExchangeCode still enforces the state check and returns the configured identity.
type Provider struct {
	cfg  Config
	base string
}

var _ ports.IdentityClient = (*Provider)(nil)

// NewProvider constructs a dev identity client from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	base := strings.TrimRight(cfg.BackendBaseURL, "/")
	if base == "" {
		return nil, errors.New("dev auth: BackendBaseURL is required")
	}
	return &Provider{cfg: cfg, base: base}, nil
}

// RedirectURI mirrors the real client so callbacks land on the same route.
func (p *Provider) RedirectURI(provider domainauth.Provider) string {
	return p.base + "/auth/oidc/" + string(provider) + "/callback"
}

// BuildAuthorizationURL returns a local callback URL and fresh handshake values.
func (p *Provider) BuildAuthorizationURL(_ context.Context, provider domainauth.Provider) (ports.AuthorizationRequest, error) {
	state, err := cryptoutil.RandomURLString(24)
	if err != nil {
		return ports.AuthorizationRequest{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := cryptoutil.RandomURLString(24)
	if err != nil {
		return ports.AuthorizationRequest{}, fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {DevCode}, "state": {state}}
	return ports.AuthorizationRequest{
		URL:          p.RedirectURI(provider) + "?" + q.Encode(),
		State:        state,
		Nonce:        nonce,
		CodeVerifier: oauth2.GenerateVerifier(),
	}, nil
}

// ExchangeCode checks the callback against the handshake and returns the dev identity claims.
func (p *Provider) ExchangeCode(_ context.Context, _ domainauth.Provider, in ports.ExchangeInput) (ports.TokenSet, error) {
	if in.State == "" || in.Params.State != in.State {
		return ports.TokenSet{}, apperrors.UpstreamAuth(fmt.Errorf("dev auth: %w: state", ports.ErrHandshakeMismatch))
	}
	if in.Params.Code != DevCode {
		return ports.TokenSet{}, apperrors.UpstreamAuth(errors.New("dev auth: unexpected code"))
	}

	claims := map[string]any{
		"sub":            p.cfg.Subject,
		"nonce":          in.Nonce,
		"email_verified": p.cfg.EmailVerified,
	}
	if p.cfg.Email != "" {
		claims["email"] = p.cfg.Email
	}
	if p.cfg.Name != "" {
		claims["name"] = p.cfg.Name
	}
	return ports.TokenSet{Claims: claims}, nil
}
