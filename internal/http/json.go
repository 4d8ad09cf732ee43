package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/caquick/caquick-api/internal/errors"
)

// Credential payloads are tiny; anything larger is rejected before decoding.
const maxJSONBody = 16 << 10

// DecodeJSON reads exactly one JSON object into dst. Unknown fields, trailing data, an empty
// body, and oversized bodies are validation errors. On failure the error response is already
// written and the caller returns.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil && dec.More() {
		err = errors.New("trailing data after JSON object")
	}
	if err == nil {
		return true
	}

	msg := "Invalid JSON body"
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		msg = "Request body is required"
	case errors.As(err, &tooLarge):
		msg = "Request body too large"
	}
	RenderError(ErrorOpts{W: w, R: r, Err: apperrors.Wrap(err, apperrors.ErrCodeValidation, msg)})
	return false
}

// WriteJSON writes v with the given status. Auth responses carry tokens, so they are never cached.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}
