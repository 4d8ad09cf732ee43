package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/caquick/caquick-api/internal/data/cryptoutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/observability/metrics"
	"github.com/caquick/caquick-api/internal/observability/notify"
	"github.com/caquick/caquick-api/internal/observability/statsd"
	"github.com/caquick/caquick-api/internal/ports"
)

const (
	// DefaultRefreshTTL is the refresh session lifetime when none is configured.
	DefaultRefreshTTL = 30 * 24 * time.Hour
	// MinPasswordLength is the shortest accepted seller password.
	MinPasswordLength = 8
	// MaxUserAgentLength bounds the user agent stored on sessions and audit entries.
	MaxUserAgentLength = 512

	msgSessionMissing      = "OIDC session is missing"
	msgMissingRefreshToken = "Missing refresh token"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgInvalidCredentials  = "Invalid credentials"
)

var errMissingSubject = errors.New("id_token has no subject")

// AuthConfig holds the session policy knobs the engine needs.
type AuthConfig struct {
	// FrontendBaseURL is the default post-login destination and always an allowed returnTo origin.
	FrontendBaseURL string
	// AllowedReturnTo lists extra origins a returnTo value may start with.
	AllowedReturnTo []string
	RefreshTTL      time.Duration
}

// SecurityNotifier delivers security alerts such as refresh token reuse.
type SecurityNotifier interface {
	NotifySecurityEvent(ctx context.Context, event notify.SecurityEvent)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Identity ports.IdentityClient
	Store    ports.CredentialStore
	Tokens   ports.AccessTokenCodec
	Hasher   ports.PasswordHasher
	// Throttle is optional; without it seller logins are not rate limited.
	Throttle ports.LoginThrottle
	Metrics  statsd.Sink
	// Alerts is optional; reuse detection always audits and counts regardless.
	Alerts   SecurityNotifier
	Logger   *slog.Logger
	Config   AuthConfig
	Now      func() time.Time
}

// AuthService is the session engine: OIDC login, seller login, refresh rotation, and logout.
type AuthService struct {
	identity ports.IdentityClient
	store    ports.CredentialStore
	tokens   ports.AccessTokenCodec
	hasher   ports.PasswordHasher
	throttle ports.LoginThrottle
	metrics  statsd.Sink
	alerts   SecurityNotifier
	logger   *slog.Logger
	now      func() time.Time

	frontendURL    string
	allowedOrigins []string
	refreshTTL     time.Duration

	dummyHashOnce sync.Once
	dummyHash     string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.Config.RefreshTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}

	frontend := strings.TrimRight(strings.TrimSpace(opts.Config.FrontendBaseURL), "/")
	origins := make([]string, 0, len(opts.Config.AllowedReturnTo)+1)
	if frontend != "" {
		origins = append(origins, frontend)
	}
	for _, o := range opts.Config.AllowedReturnTo {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}

	return &AuthService{
		identity:       opts.Identity,
		store:          opts.Store,
		tokens:         opts.Tokens,
		hasher:         opts.Hasher,
		throttle:       opts.Throttle,
		metrics:        opts.Metrics,
		alerts:         opts.Alerts,
		logger:         logger.With("component", "auth"),
		now:            now,
		frontendURL:    frontend,
		allowedOrigins: origins,
		refreshTTL:     ttl,
	}
}

// RefreshTTL reports the lifetime given to new refresh sessions.
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssuedSession is the artifact every successful login or rotation produces.
type IssuedSession struct {
	AccountID        int64
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// StartLoginResult is the provider redirect plus the handshake the caller must persist.
type StartLoginResult struct {
	RedirectURL string
	Handshake   domainauth.Handshake
}

// StartOIDCLogin prepares a PKCE authorization redirect for provider.
// An unsafe or empty returnTo is replaced by the frontend base URL.
func (s *AuthService) StartOIDCLogin(ctx context.Context, rawProvider, returnTo string) (*StartLoginResult, error) {
	provider, err := parseProvider(rawProvider)
	if err != nil {
		return nil, err
	}
	req, err := s.identity.BuildAuthorizationURL(ctx, provider)
	if err != nil {
		return nil, err
	}
	return &StartLoginResult{
		RedirectURL: req.URL,
		Handshake: domainauth.Handshake{
			State:        req.State,
			Nonce:        req.Nonce,
			CodeVerifier: req.CodeVerifier,
			ReturnTo:     s.NormalizeReturnTo(returnTo),
		},
	}, nil
}

// CallbackInput groups parameters for HandleOIDCCallback.
type CallbackInput struct {
	Provider  string
	Handshake domainauth.Handshake
	// Query is the raw callback query string; only code, state, error and error_description are read.
	Query  url.Values
	Client domainauth.ClientInfo
}

// LoginResult is the outcome of a completed OIDC callback.
type LoginResult struct {
	IssuedSession
	ReturnTo string
}

// HandleOIDCCallback completes a federated login against the handshake issued by StartOIDCLogin.
func (s *AuthService) HandleOIDCCallback(ctx context.Context, in CallbackInput) (res *LoginResult, err error) {
	started := s.now()
	provider, err := parseProvider(in.Provider)
	if err != nil {
		return nil, err
	}
	method := domainauth.OIDCLogin{Provider: provider}
	defer func() {
		if err != nil {
			s.recordLoginFailure(ctx, method, started, err)
		}
	}()

	params := CallbackParamsFromQuery(in.Query)
	if !in.Handshake.Complete() || (params.Code == "" && params.State == "" && params.Error == "") {
		return nil, apperrors.Unauthenticated(msgSessionMissing)
	}

	set, err := s.identity.ExchangeCode(ctx, provider, ports.ExchangeInput{
		RedirectURI:  s.identity.RedirectURI(provider),
		Params:       params,
		State:        in.Handshake.State,
		Nonce:        in.Handshake.Nonce,
		CodeVerifier: in.Handshake.CodeVerifier,
	})
	if errors.Is(err, ports.ErrHandshakeMismatch) {
		// Indistinguishable from absent handshake cookies.
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, msgSessionMissing)
	}
	if err != nil {
		return nil, err
	}

	info, err := UserInfoFromClaims(provider, set.Claims)
	if err != nil {
		s.logger.WarnContext(ctx, "oidc claims rejected", "provider", provider, "error", err)
		return nil, apperrors.UpstreamAuth(err)
	}

	account, err := s.store.UpsertAccountByOIDC(ctx, ports.UpsertOIDCInput{Info: info, Now: s.now()})
	if err != nil {
		return nil, err
	}
	if account.Status == domainauth.AccountStatusSuspended {
		return nil, apperrors.Forbidden("Account is suspended")
	}

	issued, err := s.issueSession(ctx, method, account, in.Client, started)
	if err != nil {
		return nil, err
	}
	return &LoginResult{IssuedSession: *issued, ReturnTo: s.NormalizeReturnTo(in.Handshake.ReturnTo)}, nil
}

// RefreshResult is a rotated session for the account that owned the presented token.
type RefreshResult struct {
	IssuedSession
	AccountStatus domainauth.AccountStatus
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client domainauth.ClientInfo) (*RefreshResult, error) {
	res, err := s.rotate(ctx, refreshToken, client, func(ctx context.Context, accountID int64) (*domainauth.Account, error) {
		return s.store.FindAccountForTokenVerification(ctx, accountID)
	})
	metrics.EmitRefresh(s.metrics, "user", metrics.ResultFor(err), err)
	return res, err
}

// RefreshSeller rotates a refresh token that must belong to a SELLER account.
func (s *AuthService) RefreshSeller(ctx context.Context, refreshToken string, client domainauth.ClientInfo) (*RefreshResult, error) {
	res, err := s.rotate(ctx, refreshToken, client, func(ctx context.Context, accountID int64) (*domainauth.Account, error) {
		cred, err := s.store.FindSellerCredentialByAccountID(ctx, accountID)
		if err != nil || cred == nil {
			return nil, err
		}
		if cred.Account.Type != domainauth.AccountTypeSeller {
			return nil, nil
		}
		return &cred.Account, nil
	})
	metrics.EmitRefresh(s.metrics, "seller", metrics.ResultFor(err), err)
	return res, err
}

// rotate redeems an active refresh session. load resolves the owning account; a nil account
// makes the token invalid for this caller.
func (s *AuthService) rotate(
	ctx context.Context,
	raw string,
	client domainauth.ClientInfo,
	load func(context.Context, int64) (*domainauth.Account, error),
) (*RefreshResult, error) {
	if raw == "" {
		return nil, apperrors.Unauthenticated(msgMissingRefreshToken)
	}
	hash := cryptoutil.SHA256Hex(raw)

	session, err := s.store.FindActiveRefreshSessionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		s.detectReuse(ctx, hash, client)
		return nil, apperrors.Unauthenticated(msgInvalidRefreshToken)
	}

	account, err := load(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.Unauthenticated(msgInvalidRefreshToken)
	}

	access, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	next, err := cryptoutil.NewRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to generate refresh token")
	}
	now := s.now()
	rotated, err := s.store.RotateRefreshSession(ctx, ports.RotateRefreshSessionInput{
		OldSessionID: session.ID,
		AccountID:    session.AccountID,
		NewTokenHash: cryptoutil.SHA256Hex(next),
		NewExpiresAt: now.Add(s.refreshTTL),
		Client:       sanitizeClient(client),
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		IssuedSession: IssuedSession{
			AccountID:        account.ID,
			AccessToken:      access.Token,
			AccessExpiresAt:  access.ExpiresAt,
			RefreshToken:     next,
			RefreshExpiresAt: rotated.ExpiresAt,
		},
		AccountStatus: account.Status,
	}, nil
}

// detectReuse reacts to a token whose session was already rotated away: every active session of
// the account is revoked and the event is audited. Failures are logged; the caller's response
// does not change.
func (s *AuthService) detectReuse(ctx context.Context, hash string, client domainauth.ClientInfo) {
	stale, err := s.store.FindRefreshSessionByHash(ctx, hash)
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh reuse lookup failed", "error", err)
		return
	}
	if stale == nil || stale.RevokedAt == nil || stale.ReplacedBySessionID == nil {
		return
	}

	revoked, err := s.store.RevokeAllRefreshSessions(ctx, stale.AccountID, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "revoke sessions after refresh reuse failed",
			"account_id", stale.AccountID, "error", err)
	}
	metrics.EmitRefreshReuse(s.metrics, revoked)
	s.logger.WarnContext(ctx, "refresh token reuse detected",
		"account_id", stale.AccountID, "session_id", stale.ID, "revoked_sessions", revoked)

	s.audit(ctx, domainauth.AuditLogEntry{
		ActorAccountID: stale.AccountID,
		TargetType:     domainauth.AuditTargetRefreshSession,
		TargetID:       stale.ID,
		Action:         domainauth.AuditActionRefreshTokenReused,
		After: map[string]any{
			"replacedBySessionId": *stale.ReplacedBySessionID,
			"revokedSessions":     revoked,
		},
	}, client)

	if s.alerts != nil {
		client = sanitizeClient(client)
		go s.alerts.NotifySecurityEvent(ctx, notify.SecurityEvent{
			Kind:       notify.KindRefreshTokenReuse,
			AccountID:  stale.AccountID,
			SessionID:  stale.ID,
			IPAddress:  client.IP,
			UserAgent:  client.UserAgent,
			Summary:    "Rotated refresh token was presented again; all sessions revoked",
			OccurredAt: s.now(),
			Metadata:   map[string]string{"revoked_sessions": strconv.FormatInt(revoked, 10)},
		})
	}
}

// Logout revokes the session behind refreshToken if it is still active. Unknown or empty tokens
// are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	session, err := s.store.FindActiveRefreshSessionByHash(ctx, cryptoutil.SHA256Hex(refreshToken))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if err := s.store.RevokeRefreshSession(ctx, session.ID, s.now()); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// LogoutSeller ends a seller session. Seller and user sessions share one store, so this is Logout.
func (s *AuthService) LogoutSeller(ctx context.Context, refreshToken string) error {
	return s.Logout(ctx, refreshToken)
}

// MeResult is the read-side projection of the signed-in account.
type MeResult struct {
	AccountID       string                   `json:"accountId"`
	AccountType     domainauth.AccountType   `json:"accountType"`
	AccountStatus   domainauth.AccountStatus `json:"accountStatus"`
	Email           *string                  `json:"email"`
	Name            *string                  `json:"name"`
	Nickname        *string                  `json:"nickname"`
	ProfileImageURL *string                  `json:"profileImageUrl"`
	BirthDate       *string                  `json:"birthDate"`
	PhoneNumber     *string                  `json:"phoneNumber"`
	NeedsProfile    bool                     `json:"needsProfile"`
}

// Me loads the account and profile for accountID.
func (s *AuthService) Me(ctx context.Context, accountID int64) (*MeResult, error) {
	account, profile, err := s.store.FindAccountForMe(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.Unauthenticated("Account not found")
	}

	out := &MeResult{
		AccountID:     fmt.Sprintf("%d", account.ID),
		AccountType:   account.Type,
		AccountStatus: account.Status,
		Email:         account.Email,
		Name:          account.Name,
		NeedsProfile:  !profile.IsComplete(),
	}
	if profile != nil {
		out.Nickname = profile.Nickname
		out.ProfileImageURL = profile.ProfileImageURL
		out.PhoneNumber = profile.PhoneNumber
		if profile.BirthDate != nil {
			d := profile.BirthDate.Format(time.DateOnly)
			out.BirthDate = &d
		}
	}
	return out, nil
}

// SellerLoginInput groups parameters for SellerLogin.
type SellerLoginInput struct {
	Username string
	Password string
	Client   domainauth.ClientInfo
}

// SellerLoginResult carries the issued session and the seller's status so callers can gate
// PENDING sellers without another round trip.
type SellerLoginResult struct {
	IssuedSession
	AccountStatus domainauth.AccountStatus
}

// SellerLogin verifies a seller's local credential and issues a session.
func (s *AuthService) SellerLogin(ctx context.Context, in SellerLoginInput) (res *SellerLoginResult, err error) {
	started := s.now()
	method := domainauth.LocalCredentialLogin{}
	defer func() {
		if err != nil {
			s.recordLoginFailure(ctx, method, started, err)
		}
	}()

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, apperrors.Validation("username and password are required")
	}

	throttleKey := "seller:" + strings.ToLower(username)
	if err := s.checkThrottle(ctx, throttleKey); err != nil {
		return nil, err
	}

	cred, err := s.store.FindSellerCredentialByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.Account.Type != domainauth.AccountTypeSeller {
		s.burnHash(in.Password)
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}
	if !s.passwordMatches(ctx, cred, in.Password) {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}
	if cred.Account.Status == domainauth.AccountStatusSuspended {
		return nil, apperrors.Forbidden("Account is suspended")
	}

	issued, err := s.issueSession(ctx, method, &cred.Account, in.Client, started)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.UpdateSellerLastLogin(ctx, cred.SellerAccountID, now); err != nil {
		s.logger.WarnContext(ctx, "update seller last login failed", "account_id", cred.SellerAccountID, "error", err)
	}
	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, throttleKey); err != nil {
			s.logger.WarnContext(ctx, "reset login throttle failed", "error", err)
		}
	}

	return &SellerLoginResult{IssuedSession: *issued, AccountStatus: cred.Account.Status}, nil
}

// ChangePasswordInput groups parameters for ChangeSellerPassword.
type ChangePasswordInput struct {
	AccountID       int64
	CurrentPassword string
	NewPassword     string
	Client          domainauth.ClientInfo
}

// ChangeSellerPassword replaces a seller's password after verifying the current one.
// The new hash and the revocation of every refresh session of the seller commit together.
func (s *AuthService) ChangeSellerPassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return apperrors.Validation("currentPassword and newPassword are required")
	}
	if utf8.RuneCountInString(in.NewPassword) < MinPasswordLength {
		return apperrors.ValidationField("newPassword",
			fmt.Sprintf("new password must be at least %d characters", MinPasswordLength))
	}
	if in.NewPassword == in.CurrentPassword {
		return apperrors.ValidationField("newPassword", "new password must differ from the current password")
	}

	cred, err := s.store.FindSellerCredentialByAccountID(ctx, in.AccountID)
	if err != nil {
		return err
	}
	if cred == nil || cred.Account.Type != domainauth.AccountTypeSeller {
		return apperrors.Forbidden("Seller account required")
	}
	if !s.passwordMatches(ctx, cred, in.CurrentPassword) {
		return apperrors.Unauthenticated(msgInvalidCredentials)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}
	now := s.now()
	revoked, err := s.store.ChangeSellerPassword(ctx, cred.SellerAccountID, hash, now)
	if err != nil {
		return err
	}

	s.audit(ctx, domainauth.AuditLogEntry{
		ActorAccountID: cred.SellerAccountID,
		TargetType:     domainauth.AuditTargetSellerCredential,
		TargetID:       cred.SellerAccountID,
		Action:         domainauth.AuditActionSellerPasswordChanged,
		Before:         map[string]any{"passwordUpdatedAt": timeOrNil(cred.PasswordUpdatedAt)},
		After:          map[string]any{"passwordUpdatedAt": now.UTC().Format(time.RFC3339), "revokedSessions": revoked},
	}, in.Client)
	s.logger.InfoContext(ctx, "seller password changed", "account_id", cred.SellerAccountID, "revoked_sessions", revoked)
	return nil
}

// NormalizeReturnTo returns raw when it equals an allowed origin or continues one at a path,
// query, or fragment boundary. Anything else becomes the frontend base URL.
func (s *AuthService) NormalizeReturnTo(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.frontendURL
	}
	for _, origin := range s.allowedOrigins {
		if !strings.HasPrefix(raw, origin) {
			continue
		}
		if rest := raw[len(origin):]; rest == "" || strings.ContainsRune("/?#", rune(rest[0])) {
			return raw
		}
	}
	return s.frontendURL
}

// issueSession produces the access token and a fresh refresh session for account.
func (s *AuthService) issueSession(
	ctx context.Context,
	method domainauth.LoginMethod,
	account *domainauth.Account,
	client domainauth.ClientInfo,
	started time.Time,
) (*IssuedSession, error) {
	access, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := cryptoutil.NewRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to generate refresh token")
	}
	session, err := s.store.CreateRefreshSession(ctx, ports.CreateRefreshSessionInput{
		AccountID: account.ID,
		TokenHash: cryptoutil.SHA256Hex(refresh),
		ExpiresAt: s.now().Add(s.refreshTTL),
		Client:    sanitizeClient(client),
	})
	if err != nil {
		return nil, err
	}

	metrics.EmitLogin(s.metrics, metrics.LoginMetric{
		Method:   method.Name(),
		Result:   metrics.ResultSuccess,
		Duration: s.now().Sub(started),
	})
	s.logger.InfoContext(ctx, "login succeeded",
		"method", method.Name(), "account_id", account.ID, "account_type", account.Type)

	return &IssuedSession{
		AccountID:        account.ID,
		AccessToken:      access.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, method domainauth.LoginMethod, started time.Time, err error) {
	result := metrics.ResultError
	if apperrors.IsForbidden(err) || apperrors.IsRateLimited(err) {
		result = metrics.ResultDenied
	}
	metrics.EmitLogin(s.metrics, metrics.LoginMetric{
		Method:   method.Name(),
		Result:   result,
		Duration: s.now().Sub(started),
		Err:      err,
	})
	s.logger.InfoContext(ctx, "login failed", "method", method.Name(), "error", err)
}

func (s *AuthService) checkThrottle(ctx context.Context, key string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allow(ctx, key)
	if err != nil {
		// Fail open.
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return nil
	}
	if !ok {
		metrics.EmitSellerThrottled(s.metrics)
		return apperrors.RateLimited("Too many login attempts. Try again later.")
	}
	return nil
}

func (s *AuthService) passwordMatches(ctx context.Context, cred *domainauth.SellerCredential, password string) bool {
	ok, err := s.hasher.Verify(cred.PasswordHash, password)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored seller password hash is unreadable",
			"account_id", cred.SellerAccountID, "error", err)
		return false
	}
	return ok
}

// burnHash spends one verification on a throwaway hash so unknown usernames cost the same as
// wrong passwords.
func (s *AuthService) burnHash(password string) {
	s.dummyHashOnce.Do(func() {
		if h, err := s.hasher.Hash("caquick-unknown-seller"); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(s.dummyHash, password)
	}
}

func (s *AuthService) audit(ctx context.Context, entry domainauth.AuditLogEntry, client domainauth.ClientInfo) {
	client = sanitizeClient(client)
	if client.IP != "" {
		entry.IPAddress = &client.IP
	}
	if client.UserAgent != "" {
		entry.UserAgent = &client.UserAgent
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "append audit log failed", "action", entry.Action, "error", err)
	}
}

// CallbackParamsFromQuery keeps only the four parameters a provider callback may carry.
func CallbackParamsFromQuery(q url.Values) ports.CallbackParams {
	return ports.CallbackParams{
		Code:             firstValue(q, "code"),
		State:            firstValue(q, "state"),
		Error:            firstValue(q, "error"),
		ErrorDescription: firstValue(q, "error_description"),
	}
}

// UserInfoFromClaims normalizes verified id_token claims. A subject is required; email_verified
// counts only when it is the JSON boolean true.
func UserInfoFromClaims(provider domainauth.Provider, claims map[string]any) (domainauth.OIDCUserInfo, error) {
	info := domainauth.OIDCUserInfo{
		Provider:   provider.IdentityProvider(),
		Subject:    stringClaim(claims, "sub"),
		Email:      stringClaim(claims, "email"),
		PictureURL: stringClaim(claims, "picture"),
	}
	if info.Subject == "" {
		return domainauth.OIDCUserInfo{}, errMissingSubject
	}
	if v, ok := claims["email_verified"].(bool); ok {
		info.EmailVerified = v
	}
	info.DisplayName = stringClaim(claims, "name")
	if info.DisplayName == "" {
		info.DisplayName = stringClaim(claims, "nickname")
	}
	return info, nil
}

func parseProvider(raw string) (domainauth.Provider, error) {
	p, ok := domainauth.ParseProvider(raw)
	if !ok {
		return "", apperrors.ValidationField("provider", "Unsupported provider")
	}
	return p, nil
}

func sanitizeClient(c domainauth.ClientInfo) domainauth.ClientInfo {
	c.UserAgent = truncateUTF8(strings.TrimSpace(c.UserAgent), MaxUserAgentLength)
	c.IP = strings.TrimSpace(c.IP)
	return c
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func firstValue(q url.Values, key string) string {
	if vs := q[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func stringClaim(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
