package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/genewise-api/internal/analysis"
	"github.com/phrazzld/genewise-api/internal/api/shared"
	"github.com/phrazzld/genewise-api/internal/report"
)

// ErrAnalysisUnavailable is returned when no document analysis backend is configured.
var ErrAnalysisUnavailable = errors.New("document analysis is not configured")

// MapErrorToStatusCode maps internal errors to HTTP status codes so that no
// internal error types or messages reach clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK

	// Bad request errors
	case errors.Is(err, report.ErrEmptyDocument),
		errors.Is(err, analysis.ErrInvalidRequest),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	case errors.Is(err, ErrAnalysisUnavailable):
		return http.StatusServiceUnavailable

	// Upstream OCR errors
	case errors.Is(err, analysis.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, analysis.ErrAnalysisFailed),
		errors.Is(err, analysis.ErrSubmission),
		errors.Is(err, analysis.ErrPoll),
		errors.Is(err, analysis.ErrTransient):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that reveals no
// internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, report.ErrEmptyDocument):
		return "Report must include sections, text or a document_url"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, analysis.ErrInvalidRequest):
		return "A document_url is required"
	case errors.Is(err, ErrAnalysisUnavailable):
		return "Document analysis is not available"
	case errors.Is(err, analysis.ErrTimeout):
		return "Document analysis timed out"
	case errors.Is(err, analysis.ErrAnalysisFailed):
		return "Document analysis failed"
	case errors.Is(err, analysis.ErrSubmission),
		errors.Is(err, analysis.ErrPoll),
		errors.Is(err, analysis.ErrTransient):
		return "Document analysis service unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message, logs the
// redacted error and writes the response.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	// Example format: "Key: 'AnalyzeRequest.DocumentURL' Error:Field validation for 'DocumentURL' failed on the 'url' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 && fieldParts[3] != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fieldParts[3]))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without", "required_without_all":
		return "required field"
	case "url", "http_url":
		return "invalid URL"
	case "max":
		return "too long"
	case "min":
		return "too short"
	default:
		return "validation failed"
	}
}
