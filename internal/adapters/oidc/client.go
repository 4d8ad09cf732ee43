package oidc

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/caquick/caquick-api/internal/data/cryptoutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/ports"
)

const (
	stateLength        = 32
	nonceLength        = 32
	discoveryTimeout   = 15 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

var (
	errStateMismatch    = fmt.Errorf("%w: state", ports.ErrHandshakeMismatch)
	errNonceMismatch    = fmt.Errorf("%w: nonce", ports.ErrHandshakeMismatch)
	errMissingHandshake = fmt.Errorf("%w: state, nonce, and code verifier are required", ports.ErrHandshakeMismatch)
	errMissingCode      = errors.New("authorization code is required")
)

// ClientConfig configures a Client.
type ClientConfig struct {
	Providers map[domainauth.Provider]ProviderConfig
	// BackendBaseURL is the public origin of this service; callback URLs are derived from it.
	BackendBaseURL string
	HTTPClient     *http.Client // Optional
	Logger         *slog.Logger // Optional
}

// Client implements ports.IdentityClient for every configured provider.
type Client struct {
	providers      map[domainauth.Provider]ProviderConfig
	backendBaseURL string
	httpClient     *http.Client
	logger         *slog.Logger
	cache          *clientCache
}

var _ ports.IdentityClient = (*Client)(nil)

// NewClient validates cfg and returns a Client. Discovery is deferred until first use.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BackendBaseURL), "/")
	if base == "" {
		return nil, apperrors.Configuration("BACKEND_BASE_URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	providers := make(map[domainauth.Provider]ProviderConfig, len(cfg.Providers))
	for p, pc := range cfg.Providers {
		providers[p] = pc
	}
	return &Client{
		providers:      providers,
		backendBaseURL: base,
		httpClient:     httpClient,
		logger:         logger.With("component", "oidc"),
		cache:          newClientCache(),
	}, nil
}

// RedirectURI returns {BACKEND_BASE_URL}/auth/oidc/{provider}/callback.
func (c *Client) RedirectURI(provider domainauth.Provider) string {
	return c.backendBaseURL + "/auth/oidc/" + string(provider) + "/callback"
}

// BuildAuthorizationURL returns a provider redirect carrying fresh state, nonce, and an S256 PKCE challenge.
func (c *Client) BuildAuthorizationURL(ctx context.Context, provider domainauth.Provider) (ports.AuthorizationRequest, error) {
	dp, err := c.provider(ctx, provider)
	if err != nil {
		return ports.AuthorizationRequest{}, err
	}

	state, err := cryptoutil.RandomURLString(stateLength)
	if err != nil {
		return ports.AuthorizationRequest{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate state")
	}
	nonce, err := cryptoutil.RandomURLString(nonceLength)
	if err != nil {
		return ports.AuthorizationRequest{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate nonce")
	}
	verifier := oauth2.GenerateVerifier()

	authURL := dp.oauth.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	)

	return ports.AuthorizationRequest{
		URL:          authURL,
		State:        state,
		Nonce:        nonce,
		CodeVerifier: verifier,
	}, nil
}

// ExchangeCode redeems the authorization code and returns the verified id_token claims.
// All failures are reported as the same upstream auth error; details are logged only.
// Handshake failures additionally wrap ports.ErrHandshakeMismatch.
func (c *Client) ExchangeCode(ctx context.Context, provider domainauth.Provider, in ports.ExchangeInput) (ports.TokenSet, error) {
	claims, err := c.exchange(ctx, provider, in)
	if err != nil {
		// Discovery and configuration failures are already classified and logged.
		if apperrors.GetCode(err) != "" {
			return ports.TokenSet{}, err
		}
		c.logger.WarnContext(ctx, "oidc code exchange failed",
			"provider", string(provider),
			"error", err,
		)
		return ports.TokenSet{}, apperrors.UpstreamAuth(err)
	}
	return ports.TokenSet{Claims: claims}, nil
}

func (c *Client) exchange(ctx context.Context, provider domainauth.Provider, in ports.ExchangeInput) (map[string]any, error) {
	if in.State == "" || in.Nonce == "" || in.CodeVerifier == "" {
		return nil, errMissingHandshake
	}
	if in.Params.Error != "" {
		return nil, fmt.Errorf("provider returned %q: %s", in.Params.Error, in.Params.ErrorDescription)
	}
	if subtle.ConstantTimeCompare([]byte(in.Params.State), []byte(in.State)) != 1 {
		return nil, errStateMismatch
	}
	if in.Params.Code == "" {
		return nil, errMissingCode
	}

	dp, err := c.provider(ctx, provider)
	if err != nil {
		return nil, err
	}

	ctx = gooidc.ClientContext(ctx, c.httpClient)
	opts := []oauth2.AuthCodeOption{oauth2.VerifierOption(in.CodeVerifier)}
	if in.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", in.RedirectURI))
	}
	tok, err := dp.oauth.Exchange(ctx, in.Params.Code, opts...)
	if err != nil {
		return nil, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := dp.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(idTok.Nonce), []byte(in.Nonce)) != 1 {
		return nil, errNonceMismatch
	}

	claims := map[string]any{}
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return claims, nil
}

// provider returns the discovered client for p, running discovery on first use.
func (c *Client) provider(ctx context.Context, p domainauth.Provider) (*discoveredProvider, error) {
	cfg, ok := c.providers[p]
	if !ok || !cfg.Configured() {
		return nil, apperrors.Configuration(fmt.Sprintf("OIDC provider %q is not configured", p))
	}

	dp, err := c.cache.getOrLoad(ctx, p, func(ctx context.Context) (*discoveredProvider, error) {
		ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()
		return discover(ctx, c.httpClient, cfg, c.RedirectURI(p))
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "oidc discovery failed", "provider", string(p), "error", err)
		return nil, apperrors.UpstreamAuth(err)
	}
	return dp, nil
}
