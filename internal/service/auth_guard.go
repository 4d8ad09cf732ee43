package service

import (
	"context"
	"log/slog"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/observability/metrics"
	"github.com/caquick/caquick-api/internal/observability/statsd"
	"github.com/caquick/caquick-api/internal/ports"
)

// AuthGuardOptions groups dependencies for AuthGuard.
type AuthGuardOptions struct {
	Tokens  ports.AccessTokenCodec
	Store   ports.CredentialStore
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// AuthGuard verifies access tokens and re-checks the account on every request, so a suspended
// account loses access before its token expires.
type AuthGuard struct {
	tokens  ports.AccessTokenCodec
	store   ports.CredentialStore
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewAuthGuard constructs a new AuthGuard.
func NewAuthGuard(opts AuthGuardOptions) *AuthGuard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthGuard{
		tokens:  opts.Tokens,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logger.With("component", "auth_guard"),
	}
}

// Authenticate admits only ACTIVE accounts.
func (g *AuthGuard) Authenticate(ctx context.Context, token string) (*domainauth.Principal, error) {
	return g.authenticate(ctx, token, false)
}

// AllowPending admits ACTIVE and PENDING accounts. Used by endpoints a seller awaiting approval
// must still reach.
func (g *AuthGuard) AllowPending(ctx context.Context, token string) (*domainauth.Principal, error) {
	return g.authenticate(ctx, token, true)
}

func (g *AuthGuard) authenticate(ctx context.Context, token string, allowPending bool) (p *domainauth.Principal, err error) {
	defer func() {
		result := metrics.ResultFor(err)
		if apperrors.IsForbidden(err) {
			result = metrics.ResultDenied
		}
		metrics.EmitGuard(g.metrics, result, err)
	}()

	if token == "" {
		return nil, apperrors.Unauthenticated("Missing access token")
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err := g.store.FindAccountForTokenVerification(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.IsDeleted() {
		return nil, apperrors.Unauthenticated("Account not found")
	}

	switch {
	case account.Status == domainauth.AccountStatusActive:
	case allowPending && account.Status == domainauth.AccountStatusPending:
	default:
		g.logger.InfoContext(ctx, "inactive account rejected",
			"account_id", account.ID, "status", account.Status)
		return nil, apperrors.Forbidden("Account is not active")
	}

	return &domainauth.Principal{
		AccountID: account.ID,
		Type:      account.Type,
		Status:    account.Status,
		TokenID:   claims.TokenID,
	}, nil
}
