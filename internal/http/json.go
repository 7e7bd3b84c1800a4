package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	apperrors "github.com/rithish08/fyke-connect-india-sub001/internal/errors"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

// maxBodyBytes bounds JSON request bodies; onboarding forms are small.
const maxBodyBytes = 64 << 10

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Field names the offending input for validation errors.
	Field string
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Step    string `json:"step,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: p.Err.Error(), Field: p.Field})
}

// WriteServiceError maps a service or domain error onto a status code and a
// stable error code. Unknown errors are 500 with a generic message.
func WriteServiceError(w http.ResponseWriter, err error) {
	var stepErr *onboarding.StepError
	if errors.As(err, &stepErr) {
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "validation_failed",
			Message: stepErr.Reason,
			Field:   stepErr.Field,
			Step:    string(stepErr.Step),
		})
		return
	}

	code, errCode := classifyServiceError(err)
	if code == http.StatusInternalServerError {
		WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errors.New("internal error")})
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errors.New(appErr.Message), Field: appErr.Field})
		return
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
}

func classifyServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, ports.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, "authentication_required"
	case errors.Is(err, service.ErrRoleRequired):
		return http.StatusConflict, "role_required"
	case errors.Is(err, service.ErrWrongRole):
		return http.StatusForbidden, "wrong_role"
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, ports.ErrRoleAlreadySet):
		return http.StatusConflict, "role_already_set"
	case errors.Is(err, ports.ErrRoleMismatch):
		return http.StatusConflict, "role_mismatch"
	case errors.Is(err, onboarding.ErrCommitInProgress):
		return http.StatusConflict, "commit_in_progress"
	case errors.Is(err, onboarding.ErrWizardClosed):
		return http.StatusConflict, "onboarding_closed"
	case errors.Is(err, onboarding.ErrFirstStep),
		errors.Is(err, onboarding.ErrFinalStep),
		errors.Is(err, onboarding.ErrNotFinalStep):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ports.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeValidation:
			return http.StatusBadRequest, "validation_failed"
		case apperrors.ErrCodeNotFound:
			return http.StatusNotFound, "not_found"
		case apperrors.ErrCodeConflict:
			return http.StatusConflict, "conflict"
		case apperrors.ErrCodeTimeout:
			return http.StatusGatewayTimeout, "timeout"
		case apperrors.ErrCodeCanceled, apperrors.ErrCodeInternal:
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
