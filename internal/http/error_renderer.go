package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/caquick/caquick-api/internal/errors"
)

const genericAuthFailure = "authentication failed"

// ErrorOpts groups what RenderError needs to answer a failed request.
type ErrorOpts struct {
	W   http.ResponseWriter
	R   *http.Request
	Err error
	// Logger records the cause of server-side failures. Optional.
	Logger *slog.Logger
}

// DetermineErrorStatus maps an error to its HTTP status.
//
//	unauthenticated, upstream_auth  401
//	forbidden                       403
//	validation                      400
//	not_found                       404
//	conflict                        409
//	rate_limited                    429
//	timeout                         504
//	everything else                 500
//
// A raw foreign key violation that escaped the data layer is reported as a conflict.
func DetermineErrorStatus(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnauthenticated, apperrors.ErrCodeUpstreamAuth:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// RenderError writes the JSON error body {"error": code, "message": msg}. The message is the
// error's public message, never its cause; upstream identity failures all read
// "authentication failed". 5xx causes are logged.
func RenderError(opts ErrorOpts) {
	status := DetermineErrorStatus(opts.Err)
	code := string(apperrors.GetCode(opts.Err))
	if code == "" {
		code = string(apperrors.ErrCodeInternal)
	}

	msg := apperrors.PublicMessage(opts.Err, http.StatusText(status))
	switch {
	case apperrors.IsUpstreamAuth(opts.Err):
		msg = genericAuthFailure
	case status >= http.StatusInternalServerError:
		msg = http.StatusText(status)
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		attrs := []any{"status", status, "error", opts.Err}
		if opts.R != nil {
			attrs = append(attrs, "method", opts.R.Method, "path", opts.R.URL.Path)
			logger.ErrorContext(opts.R.Context(), "request failed", attrs...)
		} else {
			logger.Error("request failed", attrs...)
		}
	}

	body := map[string]string{"error": code, "message": msg}
	if field := apperrors.GetField(opts.Err); field != "" {
		body["field"] = field
	}
	WriteJSON(opts.W, status, body)
}
