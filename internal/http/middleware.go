package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	apperrors "github.com/caquick/caquick-api/internal/errors"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Logging returns a middleware that logs HTTP requests and responses.
// Each request gets an id, taken from X-Request-Id when the caller sent one.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteJSON(w, http.StatusInternalServerError, map[string]string{
						"error":   string(apperrors.ErrCodeInternal),
						"message": http.StatusText(http.StatusInternalServerError),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Guard authenticates an access token.
type Guard interface {
	Authenticate(ctx context.Context, token string) (*domainauth.Principal, error)
	AllowPending(ctx context.Context, token string) (*domainauth.Principal, error)
}

// AuthOptions configures RequireAuth.
type AuthOptions struct {
	// AllowPending admits PENDING accounts as well as ACTIVE ones.
	AllowPending bool
	// AcceptCookie reads the access token from the caquick_at cookie when no Authorization
	// header is present.
	AcceptCookie bool
	Logger       *slog.Logger
}

// RequireAuth returns a middleware that admits only requests carrying a valid access token for
// an admissible account. The principal is stored in the request context.
func RequireAuth(guard Guard, opts AuthOptions) func(http.Handler) http.Handler {
	check := guard.Authenticate
	if opts.AllowPending {
		check = guard.AllowPending
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := check(r.Context(), AccessTokenFromRequest(r, opts.AcceptCookie))
			if err != nil {
				if apperrors.IsUnauthenticated(err) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="caquick"`)
				}
				RenderError(ErrorOpts{W: w, R: r, Err: err, Logger: opts.Logger})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), p)))
		})
	}
}

// AccessTokenFromRequest returns the access token for the request. When acceptCookie is set the
// access cookie is read first; otherwise, or when it is absent, the Authorization Bearer header.
func AccessTokenFromRequest(r *http.Request, acceptCookie bool) string {
	if acceptCookie {
		if tok := cookieValue(r, CookieAccess); tok != "" {
			return tok
		}
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// ClientInfoFromRequest extracts the caller's user agent and address. The first
// X-Forwarded-For hop wins over the socket address.
func ClientInfoFromRequest(r *http.Request) domainauth.ClientInfo {
	return domainauth.ClientInfo{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); net.ParseIP(ip) != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
