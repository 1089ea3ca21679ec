package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainErr maps the command/query error taxonomy to a status. Infrastructure causes are logged, never returned.
func writeDomainErr(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domerrors.ErrAccountAlreadyAdded):
		writeErr(w, http.StatusConflict, ErrCodeAccountAlreadyAdded, err.Error())
	case errors.Is(err, domerrors.ErrAccountNotLinked):
		writeErr(w, http.StatusNotFound, ErrCodeAccountNotLinked, err.Error())
	case errors.Is(err, domerrors.ErrNotFound):
		writeErr(w, http.StatusNotFound, "", err.Error())
	case errors.Is(err, domerrors.ErrConflict):
		writeErr(w, http.StatusConflict, "", domerrors.ErrConflict.Error())
	case errors.Is(err, domerrors.ErrConnection):
		log.Warn().Err(err).Msg("backing store unavailable")
		writeErr(w, http.StatusServiceUnavailable, "", domerrors.ErrConnection.Error())
	default:
		log.Error().Err(err).Msg("unexpected error")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
	}
}
