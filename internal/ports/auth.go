// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
)

// ErrHandshakeMismatch marks an exchange rejected because the callback does not belong to the
// handshake issued at login start: missing handshake values, or a state or nonce mismatch.
var ErrHandshakeMismatch = errors.New("oidc handshake mismatch")

// AuthorizationRequest is the result of preparing a provider redirect.
// State, Nonce, and CodeVerifier must be kept by the caller until the callback.
type AuthorizationRequest struct {
	URL          string
	State        string
	Nonce        string
	CodeVerifier string
}

// CallbackParams are the only query parameters forwarded from a provider callback.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	RedirectURI  string
	Params       CallbackParams
	State        string
	Nonce        string
	CodeVerifier string
}

// TokenSet carries the verified id_token claims from a successful exchange.
type TokenSet struct {
	Claims map[string]any
}

// IdentityClient performs the relying-party side of an OIDC authorization code flow.
type IdentityClient interface {
	// BuildAuthorizationURL prepares a PKCE-protected authorization redirect.
	BuildAuthorizationURL(ctx context.Context, provider domainauth.Provider) (AuthorizationRequest, error)

	// ExchangeCode validates the callback against the expected state, redeems the code with the
	// verifier, verifies the id_token and nonce, and returns its claims.
	ExchangeCode(ctx context.Context, provider domainauth.Provider, in ExchangeInput) (TokenSet, error)

	// RedirectURI returns the callback URL registered for provider.
	RedirectURI(provider domainauth.Provider) string
}

// UpsertOIDCInput groups parameters for linking a federated identity to an account.
type UpsertOIDCInput struct {
	Info domainauth.OIDCUserInfo
	Now  time.Time
}

// CreateRefreshSessionInput groups parameters for a new refresh session row.
type CreateRefreshSessionInput struct {
	AccountID int64
	TokenHash string
	ExpiresAt time.Time
	Client    domainauth.ClientInfo
}

// RotateRefreshSessionInput groups parameters for replacing a refresh session.
type RotateRefreshSessionInput struct {
	OldSessionID int64
	AccountID    int64
	NewTokenHash string
	NewExpiresAt time.Time
	Client       domainauth.ClientInfo
	Now          time.Time
}

// CredentialStore is the persistence port for accounts, identities, and sessions.
// Lookups return (nil, nil) when nothing matches. Soft-deleted rows are never returned.
type CredentialStore interface {
	FindIdentity(ctx context.Context, provider domainauth.IdentityProvider, subject string) (*domainauth.AccountIdentity, error)

	// UpsertAccountByOIDC links or creates the account for a federated identity in one transaction.
	UpsertAccountByOIDC(ctx context.Context, in UpsertOIDCInput) (*domainauth.Account, error)

	CreateRefreshSession(ctx context.Context, in CreateRefreshSessionInput) (*domainauth.RefreshSession, error)

	// FindActiveRefreshSessionByHash excludes revoked and expired sessions.
	FindActiveRefreshSessionByHash(ctx context.Context, tokenHash string) (*domainauth.RefreshSession, error)

	// FindRefreshSessionByHash returns the session in any state. Used for reuse detection.
	FindRefreshSessionByHash(ctx context.Context, tokenHash string) (*domainauth.RefreshSession, error)

	// RotateRefreshSession creates the successor, revokes the old session, and links them in one
	// transaction. Fails with an unauthenticated error if the old session was already revoked.
	RotateRefreshSession(ctx context.Context, in RotateRefreshSessionInput) (*domainauth.RefreshSession, error)

	RevokeRefreshSession(ctx context.Context, sessionID int64, at time.Time) error
	RevokeAllRefreshSessions(ctx context.Context, accountID int64, at time.Time) (int64, error)

	FindAccountForTokenVerification(ctx context.Context, accountID int64) (*domainauth.Account, error)
	FindAccountForMe(ctx context.Context, accountID int64) (*domainauth.Account, *domainauth.UserProfile, error)

	FindSellerCredentialByUsername(ctx context.Context, username string) (*domainauth.SellerCredential, error)
	FindSellerCredentialByAccountID(ctx context.Context, accountID int64) (*domainauth.SellerCredential, error)
	UpdateSellerLastLogin(ctx context.Context, accountID int64, at time.Time) error
	// ChangeSellerPassword stores the new hash and revokes every refresh session of the seller
	// as one unit, returning how many sessions were revoked.
	ChangeSellerPassword(ctx context.Context, accountID int64, hash string, at time.Time) (int64, error)

	AppendAuditLog(ctx context.Context, entry domainauth.AuditLogEntry) error
}

// IssuedToken is a signed access token and its absolute expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	AccountID int64
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessTokenCodec signs and verifies short-lived access tokens.
type AccessTokenCodec interface {
	Issue(accountID int64) (IssuedToken, error)
	Verify(token string) (AccessClaims, error)
}

// PasswordHasher hashes and verifies local credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}

// LoginThrottle bounds credential-guessing attempts per key.
type LoginThrottle interface {
	// Allow records an attempt and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempt budget after a successful login.
	Reset(ctx context.Context, key string) error
}
