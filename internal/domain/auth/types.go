// Package auth contains domain-level types for accounts, identities, and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// AccountType distinguishes shoppers from sellers.
type AccountType string

const (
	AccountTypeUser   AccountType = "USER"
	AccountTypeSeller AccountType = "SELLER"
)

// AccountStatus gates access. Only ACTIVE accounts pass the guard.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// IdentityProvider is the persisted enum for an external identity source.
type IdentityProvider string

const (
	IdentityProviderGoogle IdentityProvider = "GOOGLE"
	IdentityProviderKakao  IdentityProvider = "KAKAO"
)

// Provider is the lower-case slug used in URLs and configuration.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
)

// Providers lists every supported provider slug.
var Providers = []Provider{ProviderGoogle, ProviderKakao}

// ParseProvider reports whether raw names a supported provider. Matching is case-insensitive.
func ParseProvider(raw string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case ProviderGoogle, ProviderKakao:
		return p, true
	default:
		return "", false
	}
}

// IdentityProvider maps a slug to its persisted enum.
func (p Provider) IdentityProvider() IdentityProvider {
	return IdentityProvider(strings.ToUpper(string(p)))
}

// Account is the principal that owns sessions.
type Account struct {
	ID        int64
	Type      AccountType
	Status    AccountStatus
	Email     *string
	Name      *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted reports whether the account was soft-deleted.
func (a Account) IsDeleted() bool { return a.DeletedAt != nil }

// IsActive reports whether the account may use authenticated endpoints.
func (a Account) IsActive() bool {
	return !a.IsDeleted() && a.Status == AccountStatusActive
}

// UserProfile holds shopper profile fields. One per USER account.
type UserProfile struct {
	AccountID       int64
	Nickname        *string
	BirthDate       *time.Time
	PhoneNumber     *string
	ProfileImageURL *string
}

// IsComplete reports whether the profile has every field the storefront requires.
func (p *UserProfile) IsComplete() bool {
	return p != nil &&
		p.BirthDate != nil &&
		p.PhoneNumber != nil && *p.PhoneNumber != "" &&
		p.Nickname != nil && *p.Nickname != ""
}

// AccountIdentity binds (provider, subject) to an account. The binding never moves.
type AccountIdentity struct {
	ID                      int64
	AccountID               int64
	Provider                IdentityProvider
	ProviderSubject         string
	ProviderEmail           *string
	ProviderDisplayName     *string
	ProviderProfileImageURL *string
	LastLoginAt             *time.Time
}

// SellerCredential is the local username/password credential for a SELLER account.
type SellerCredential struct {
	SellerAccountID   int64
	Username          string
	PasswordHash      string
	PasswordUpdatedAt *time.Time
	LastLoginAt       *time.Time
	Account           Account
}

// RefreshSession is a server-side record of a refresh token. Only the hash is stored.
type RefreshSession struct {
	ID                  int64
	AccountID           int64
	TokenHash           string
	ExpiresAt           time.Time
	RevokedAt           *time.Time
	ReplacedBySessionID *int64
	UserAgent           *string
	IPAddress           *string
	CreatedAt           time.Time
}

// IsActive reports whether the session can still be redeemed at now.
func (s RefreshSession) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// AuditAction names an audited change.
type AuditAction string

const (
	AuditActionSellerPasswordChanged AuditAction = "SELLER_PASSWORD_CHANGED"
	AuditActionRefreshTokenReused    AuditAction = "REFRESH_TOKEN_REUSED"
)

// AuditTargetType names the kind of entity an audit entry refers to.
type AuditTargetType string

const (
	AuditTargetSellerCredential AuditTargetType = "SELLER_CREDENTIAL"
	AuditTargetRefreshSession   AuditTargetType = "AUTH_REFRESH_SESSION"
)

// AuditLogEntry is an append-only record of a security-relevant change.
type AuditLogEntry struct {
	ActorAccountID int64
	TargetType     AuditTargetType
	TargetID       int64
	Action         AuditAction
	Before         map[string]any
	After          map[string]any
	IPAddress      *string
	UserAgent      *string
}

// OIDCUserInfo is the normalized identity extracted from a verified id_token.
type OIDCUserInfo struct {
	Provider      IdentityProvider
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	PictureURL    string
}

// VerifiedEmail returns the email only when the provider vouched for it.
func (u OIDCUserInfo) VerifiedEmail() string {
	if u.EmailVerified {
		return u.Email
	}
	return ""
}

// DefaultNickname picks a nickname for an auto-created profile.
func (u OIDCUserInfo) DefaultNickname() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return "user"
}

// Handshake is the per-login OIDC state carried between start and callback.
type Handshake struct {
	State        string
	Nonce        string
	CodeVerifier string
	ReturnTo     string
}

// ClientInfo is request metadata recorded on sessions and audit entries.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// LoginMethod is the closed set of ways a session can be established.
type LoginMethod interface {
	// Name is a short label for logs and metrics.
	Name() string
	isLoginMethod()
}

// OIDCLogin is a federated login through an external provider.
type OIDCLogin struct {
	Provider Provider
}

func (m OIDCLogin) Name() string { return "oidc_" + string(m.Provider) }
func (OIDCLogin) isLoginMethod() {}

// LocalCredentialLogin is a seller username/password login.
type LocalCredentialLogin struct{}

func (LocalCredentialLogin) Name() string { return "local_credential" }
func (LocalCredentialLogin) isLoginMethod() {}

// Principal is the authenticated caller attached to a request by the guard.
type Principal struct {
	AccountID int64
	Type      AccountType
	Status    AccountStatus
	TokenID   string
}

// Complete reports whether the handshake carries every server-issued secret a callback needs.
func (h Handshake) Complete() bool {
	return h.State != "" && h.Nonce != "" && h.CodeVerifier != ""
}
