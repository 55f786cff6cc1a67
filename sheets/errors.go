package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	// ErrCredentials means no usable service account credential was found.
	ErrCredentials = errors.New("spreadsheet credentials unavailable")
	// ErrSpreadsheetNotFound means the spreadsheet id does not exist.
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	// ErrWorksheetNotFound means the spreadsheet has no usable worksheet.
	ErrWorksheetNotFound = errors.New("worksheet not found")
	// ErrPermissionDenied means the service account cannot open the spreadsheet.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRateLimited means the remote API refused the call for quota reasons.
	// Callers should slow down and retry; nothing retries automatically.
	ErrRateLimited = errors.New("rate limit exceeded, slow down and retry")
	// ErrMalformed means the remote response could not be interpreted.
	ErrMalformed = errors.New("malformed spreadsheet response")
)

// IsRateLimit reports whether err is a quota refusal, either already
// classified or a raw API error with status 429.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests
}

// rateLimitText matches quota refusals by message. Only raw transport
// errors go through it; wrapped errors carry ranges and ids that may
// contain "429".
func rateLimitText(msg string) bool {
	return strings.Contains(msg, "RATE_LIMIT_EXCEEDED") || strings.Contains(msg, "Error 429")
}

// classify maps transport errors onto the package sentinels, keeping the
// original error text for logs.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests || rateLimitText(gerr.Message):
			return fmt.Errorf("%s: %w: %v", op, ErrRateLimited, err)
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, ErrSpreadsheetNotFound, err)
		case gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
		case gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"):
			return fmt.Errorf("%s: %w: %v", op, ErrWorksheetNotFound, err)
		}
	}
	if errors.Is(err, ErrRateLimited) || rateLimitText(err.Error()) {
		return fmt.Errorf("%s: %w: %v", op, ErrRateLimited, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
