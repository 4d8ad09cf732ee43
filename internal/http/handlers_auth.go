package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
	"github.com/caquick/caquick-api/internal/service"
)

const tokenTypeBearer = "Bearer"

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	StartOIDCLogin(ctx context.Context, provider, returnTo string) (*service.StartLoginResult, error)
	HandleOIDCCallback(ctx context.Context, in service.CallbackInput) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, client domainauth.ClientInfo) (*service.RefreshResult, error)
	RefreshSeller(ctx context.Context, refreshToken string, client domainauth.ClientInfo) (*service.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutSeller(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accountID int64) (*service.MeResult, error)
	SellerLogin(ctx context.Context, in service.SellerLoginInput) (*service.SellerLoginResult, error)
	ChangeSellerPassword(ctx context.Context, in service.ChangePasswordInput) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc       AuthServiceInterface
	Cookies   CookieConfig
	Transport TokenTransport
	// AccessTTL and RefreshTTL set cookie lifetimes. Zero falls back to the issued expiry.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	RenderError(ErrorOpts{W: w, R: r, Err: err, Logger: h.logger()})
}

// tokenResponse is the body returned whenever an access token is issued.
type tokenResponse struct {
	AccessToken   string                   `json:"accessToken"`
	TokenType     string                   `json:"tokenType"`
	AccountStatus domainauth.AccountStatus `json:"accountStatus,omitempty"`
}

// StartOIDC begins a login with the provider in the path.
// GET /auth/oidc/{provider}/start?returnTo=<url>.
func (h *AuthHandlers) StartOIDC(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.StartOIDCLogin(r.Context(), r.PathValue("provider"), r.URL.Query().Get("returnTo"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Cookies.SetHandshake(w, res.Handshake)
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

// CallbackOIDC completes a login. Handshake cookies are cleared whatever the outcome.
// GET /auth/oidc/{provider}/callback?code=<code>&state=<state>.
func (h *AuthHandlers) CallbackOIDC(w http.ResponseWriter, r *http.Request) {
	handshake := HandshakeFromRequest(r)
	h.Cookies.ClearHandshake(w)

	res, err := h.Svc.HandleOIDCCallback(r.Context(), service.CallbackInput{
		Provider:  r.PathValue("provider"),
		Handshake: handshake,
		Query:     r.URL.Query(),
		Client:    ClientInfoFromRequest(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSession(w, res.IssuedSession)
	if h.Transport == TransportBearer {
		WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: res.AccessToken, TokenType: tokenTypeBearer})
		return
	}
	http.Redirect(w, r, res.ReturnTo, http.StatusFound)
}

// Refresh rotates the refresh cookie.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, h.Svc.Refresh, false)
}

// SellerRefresh rotates a seller's refresh cookie.
// POST /auth/seller/refresh.
func (h *AuthHandlers) SellerRefresh(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, h.Svc.RefreshSeller, true)
}

type refreshFunc func(ctx context.Context, refreshToken string, client domainauth.ClientInfo) (*service.RefreshResult, error)

func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request, fn refreshFunc, withStatus bool) {
	res, err := fn(r.Context(), cookieValue(r, CookieRefresh), ClientInfoFromRequest(r))
	if err != nil {
		// Drop the dead token.
		if apperrors.IsUnauthenticated(err) {
			h.Cookies.ClearSession(w)
		}
		h.fail(w, r, err)
		return
	}

	h.setSession(w, res.IssuedSession)
	body := tokenResponse{AccessToken: res.AccessToken, TokenType: tokenTypeBearer}
	if withStatus {
		body.AccountStatus = res.AccountStatus
	}
	WriteJSON(w, http.StatusOK, body)
}

// Logout revokes the refresh session and clears auth cookies.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.Svc.Logout)
}

// SellerLogout is Logout for the seller console.
// POST /auth/seller/logout.
func (h *AuthHandlers) SellerLogout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.Svc.LogoutSeller)
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	if err := fn(r.Context(), cookieValue(r, CookieRefresh)); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	h.Cookies.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in account.
// GET /auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.fail(w, r, apperrors.Unauthenticated("Missing access token"))
		return
	}

	me, err := h.Svc.Me(r.Context(), p.AccountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, me)
}

type sellerLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SellerLogin signs a seller in with username and password.
// POST /auth/seller/login.
func (h *AuthHandlers) SellerLogin(w http.ResponseWriter, r *http.Request) {
	var req sellerLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.SellerLogin(r.Context(), service.SellerLoginInput{
		Username: req.Username,
		Password: req.Password,
		Client:   ClientInfoFromRequest(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSession(w, res.IssuedSession)
	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:   res.AccessToken,
		TokenType:     tokenTypeBearer,
		AccountStatus: res.AccountStatus,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SellerChangePassword replaces the signed-in seller's password.
// POST /auth/seller/change-password.
func (h *AuthHandlers) SellerChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.fail(w, r, apperrors.Unauthenticated("Missing access token"))
		return
	}

	var req changePasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	err := h.Svc.ChangeSellerPassword(r.Context(), service.ChangePasswordInput{
		AccountID:       p.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Client:          ClientInfoFromRequest(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Every refresh session is gone, including this browser's.
	h.Cookies.clear(w, CookieRefresh)
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// setSession writes the refresh cookie and, for cookie transport, the access mirror.
func (h *AuthHandlers) setSession(w http.ResponseWriter, s service.IssuedSession) {
	h.Cookies.SetRefresh(w, s.RefreshToken, ttlOr(h.RefreshTTL, s.RefreshExpiresAt))
	if h.Transport == TransportBearer {
		return
	}
	h.Cookies.SetAccess(w, s.AccessToken, ttlOr(h.AccessTTL, s.AccessExpiresAt))
}

func ttlOr(ttl time.Duration, expiresAt time.Time) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return time.Until(expiresAt)
}
