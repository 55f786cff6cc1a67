package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/camden-git/clubdash/attendance"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/profile"
	"github.com/camden-git/clubdash/roster"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/syncconfig"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Warn("failed to encode JSON response", zap.Error(err))
		}
	}
}

// Error codes of the API envelope.
const (
	CodeCredentials       = "credentials_unavailable"
	CodeRateLimited       = "rate_limited"
	CodeSourceUnavailable = "source_unavailable"
	CodeInvalidRequest    = "invalid_request"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInternal          = "internal_error"
)

// writeError maps service errors onto the API envelope. Unknown errors are
// logged and reported as 500 without their text.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, sheets.ErrCredentials):
		WriteAPIError(w, http.StatusServiceUnavailable, CodeCredentials,
			"spreadsheet credentials are not configured, contact the administrator")
	case sheets.IsRateLimit(err):
		WriteAPIError(w, http.StatusTooManyRequests, CodeRateLimited,
			"too many requests to the spreadsheet service, slow down and retry in a minute")
	case errors.Is(err, roster.ErrDuplicateID):
		WriteAPIError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, roster.ErrInvalidID),
		errors.Is(err, roster.ErrMissingField),
		errors.Is(err, roster.ErrInvalidStatus),
		errors.Is(err, attendance.ErrNoEntries),
		errors.Is(err, attendance.ErrInvalidMark),
		errors.Is(err, medical.ErrMissingField),
		errors.Is(err, syncconfig.ErrInvalidURL),
		errors.Is(err, syncconfig.ErrUnknownKind):
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, roster.ErrPlayerNotFound),
		errors.Is(err, profile.ErrPlayerNotFound),
		errors.Is(err, syncconfig.ErrConnectionNotFound),
		errors.Is(err, sql.ErrNoRows):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, sheets.ErrSpreadsheetNotFound),
		errors.Is(err, sheets.ErrWorksheetNotFound),
		errors.Is(err, sheets.ErrPermissionDenied),
		errors.Is(err, sheets.ErrMalformed):
		WriteAPIError(w, http.StatusBadGateway, CodeSourceUnavailable, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, detail)
}
