// Package oidc provides the OIDC relying-party adapter used for federated login.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested from every provider.
var DefaultScopes = []string{gooidc.ScopeOpenID, "email", "profile"}

// ProviderConfig holds per-provider credentials.
type ProviderConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	// Scopes overrides DefaultScopes when non-empty.
	Scopes []string
}

// Configured reports whether every required field is present.
func (c ProviderConfig) Configured() bool {
	return c.validate() == nil
}

func (c ProviderConfig) validate() error {
	if c.IssuerURL == "" {
		return errors.New("issuer URL is required")
	}
	if c.ClientID == "" {
		return errors.New("client ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	return nil
}

// discoveredProvider is a fully initialized client for one provider.
// It is immutable once built and safe for concurrent use.
type discoveredProvider struct {
	oauth    *oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

// discover fetches the discovery document and builds the oauth2 config and id_token verifier.
func discover(ctx context.Context, httpClient *http.Client, cfg ProviderConfig, redirectURL string) (*discoveredProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// go-oidc keeps this client for later JWKS fetches.
	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &discoveredProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
