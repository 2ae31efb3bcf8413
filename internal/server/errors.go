package server

import (
	"errors"
	"net/http"

	apikeydomain "github.com/crescendohq/crescendo/internal/apikey/domain"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	signingdomain "github.com/crescendohq/crescendo/internal/signing/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// apiError is the wire form of every error surfaced by a handler.
type apiError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

var (
	ErrNotFound = &apiError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "resource not found",
	}
	ErrUnauthorized = &apiError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "missing or invalid API key",
	}
	ErrTooManyRequests = &apiError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "too many requests",
	}
)

func invalidRequestError(message string) *apiError {
	if message == "" {
		message = "invalid request body"
	}
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: message,
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// AbortWithError translates a domain error into its HTTP response and
// aborts the request. Unknown errors are logged and hidden behind a 500.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	if apiErr := mapDomainError(err); apiErr != nil {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	zap.L().Error("unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal server error",
	}})
}

func mapDomainError(err error) *apiError {
	switch {
	case errors.Is(err, signingdomain.ErrTokenNotFound):
		return &apiError{Status: http.StatusNotFound, Code: "token_not_found", Message: "link is invalid or no longer active"}
	case errors.Is(err, signingdomain.ErrTokenExpired):
		return &apiError{Status: http.StatusGone, Code: "token_expired", Message: "link has expired"}
	case errors.Is(err, signingdomain.ErrInvalidSignerName):
		return newValidationError("signer_name", "invalid_signer_name", "signer name is required")
	case errors.Is(err, signingdomain.ErrInvalidSignature):
		return newValidationError("signature_image", "invalid_signature", "signature image is missing or too small")

	case errors.Is(err, contractdomain.ErrContractNotFound),
		errors.Is(err, contractdomain.ErrInvalidContractID):
		return ErrNotFound
	case errors.Is(err, contractdomain.ErrContractNotDraft):
		return &apiError{Status: http.StatusConflict, Code: "contract_not_draft", Message: "contract can only be modified while in draft"}
	case errors.Is(err, contractdomain.ErrContractTerminal):
		return &apiError{Status: http.StatusConflict, Code: "contract_terminal", Message: "contract is in a terminal status"}
	case errors.Is(err, contractdomain.ErrInvalidTransition):
		return &apiError{Status: http.StatusConflict, Code: "invalid_transition", Message: "contract status does not allow this action"}
	case errors.Is(err, contractdomain.ErrStaleTransition):
		return &apiError{Status: http.StatusConflict, Code: "conflict", Message: "contract changed concurrently, retry"}
	case errors.Is(err, contractdomain.ErrMissingSigner):
		return newValidationError("signer_email", "missing_signer", "contract has no signer email")
	case errors.Is(err, contractdomain.ErrMissingReviewer):
		return newValidationError("reviewer_email", "missing_reviewer", "contract has no reviewer email")
	case errors.Is(err, contractdomain.ErrInvalidTier):
		return newValidationError("tier", "invalid_tier", "unknown service tier")
	case errors.Is(err, contractdomain.ErrInvalidCurrency):
		return newValidationError("currency", "invalid_currency", "currency must be a 3-letter ISO code")
	case errors.Is(err, contractdomain.ErrInvalidPrice):
		return newValidationError("price_amount", "invalid_price", "price must be a positive amount in minor units")
	case errors.Is(err, contractdomain.ErrInvalidDuration):
		return newValidationError("duration_months", "invalid_duration", "duration must be a positive number of months")
	case errors.Is(err, contractdomain.ErrInvalidVATRate):
		return newValidationError("vat_rate", "invalid_vat_rate", "vat rate must be between 0 and 100")
	case errors.Is(err, contractdomain.ErrInvalidBillingTerm):
		return newValidationError("billing_interval", "invalid_billing_interval", "unknown billing interval")

	case errors.Is(err, apikeydomain.ErrInvalidKey),
		errors.Is(err, apikeydomain.ErrKeyExpired):
		return ErrUnauthorized
	}
	return nil
}
