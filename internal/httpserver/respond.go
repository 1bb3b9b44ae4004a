package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clearvoice/feedback/internal/apperror"
)

// Respond writes a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// errorEnvelope is the wire shape for every error response: {"error":{"code","message"}}.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError writes the {"error":{"code","message"}} envelope.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	Respond(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// RespondAppError maps an apperror.Error (or an opaque error, treated as
// internal) to its HTTP status and envelope, logging the underlying cause.
func RespondAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ae, ok := apperror.As(err); ok {
		if ae.Kind == apperror.KindInternal {
			logger.Error("internal error", "code", ae.Code, "error", err)
		}
		RespondError(w, ae.Status(), ae.Code, ae.Message)
		return
	}

	logger.Error("unhandled error", "error", err)
	RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "an unexpected error occurred")
}
