package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/yamdb/internal/common"
)

// MsgInvalidCode is reported under confirmation_code when the exchange fails.
const MsgInvalidCode = "Invalid token!"

type detail struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps service errors onto HTTP. Uniqueness conflicts are
// reported as 400 with field errors, like validation failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var fe *common.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, status, fe.Fields)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeJSON(w, status, map[string][]string{"confirmation_code": {MsgInvalidCode}})
	case status == http.StatusNotFound:
		writeJSON(w, status, detail{"Not found."})
	case status == http.StatusInternalServerError:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, detail{"Internal server error."})
	case errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, status, detail{"Token is expired."})
	case errors.Is(err, common.ErrInvalidToken):
		writeJSON(w, status, detail{"Given token not valid for any token type."})
	default:
		writeJSON(w, status, detail{err.Error()})
	}
}

// decode reads a JSON body into v. Malformed JSON is a validation error.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return common.NewValidationError("non_field_errors", "malformed JSON: "+err.Error())
	}
	return nil
}
