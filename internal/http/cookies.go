package httpx

import (
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
)

// Cookie names.
const (
	CookieAccess        = "caquick_at"
	CookieRefresh       = "caquick_rt"
	CookieOIDCState     = "caquick_oidc_state"
	CookieOIDCNonce     = "caquick_oidc_nonce"
	CookieOIDCVerifier  = "caquick_oidc_cv"
	CookieOIDCReturnTo  = "caquick_oidc_return_to"
	handshakeCookieLife = 10 * time.Minute
)

// TokenTransport selects how the access token reaches the browser.
type TokenTransport string

const (
	// TransportCookie mirrors the access token into an httpOnly cookie and redirects after login.
	TransportCookie TokenTransport = "cookie"
	// TransportBearer returns the access token in the response body only.
	TransportBearer TokenTransport = "bearer"
)

// CookieConfig carries the attributes shared by every auth cookie.
type CookieConfig struct {
	Domain string
	Secure bool
}

func (c CookieConfig) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge / time.Second),
	})
}

// clear expires a cookie with the same attributes it was set with.
func (c CookieConfig) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// SetHandshake stores the per-login OIDC state.
func (c CookieConfig) SetHandshake(w http.ResponseWriter, h domainauth.Handshake) {
	c.set(w, CookieOIDCState, h.State, handshakeCookieLife)
	c.set(w, CookieOIDCNonce, h.Nonce, handshakeCookieLife)
	c.set(w, CookieOIDCVerifier, h.CodeVerifier, handshakeCookieLife)
	c.set(w, CookieOIDCReturnTo, url.QueryEscape(h.ReturnTo), handshakeCookieLife)
}

// ClearHandshake removes the per-login OIDC state.
func (c CookieConfig) ClearHandshake(w http.ResponseWriter) {
	c.clear(w, CookieOIDCState)
	c.clear(w, CookieOIDCNonce)
	c.clear(w, CookieOIDCVerifier)
	c.clear(w, CookieOIDCReturnTo)
}

// SetRefresh stores the raw refresh token.
func (c CookieConfig) SetRefresh(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, CookieRefresh, token, ttl)
}

// SetAccess mirrors the access token for cookie transport.
func (c CookieConfig) SetAccess(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, CookieAccess, token, ttl)
}

// ClearSession removes both the refresh and access cookies.
func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	c.clear(w, CookieRefresh)
	c.clear(w, CookieAccess)
}

// HandshakeFromRequest reads whatever handshake cookies are present. Missing cookies yield
// empty fields.
func HandshakeFromRequest(r *http.Request) domainauth.Handshake {
	return domainauth.Handshake{
		State:        cookieValue(r, CookieOIDCState),
		Nonce:        cookieValue(r, CookieOIDCNonce),
		CodeVerifier: cookieValue(r, CookieOIDCVerifier),
		ReturnTo:     returnToValue(r),
	}
}

func returnToValue(r *http.Request) string {
	raw := cookieValue(r, CookieOIDCReturnTo)
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return v
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
