// Package validation provides input validation for the scoring API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mparedes/fraudscore/internal/scoring"
)

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 256

// countryRegex validates ISO-style country codes (two or three letters)
var countryRegex = regexp.MustCompile(`^[A-Za-z]{2,3}$`)

// emailRegex is deliberately loose; uniqueness is enforced by the store
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidCountry checks if a string looks like a country code
func IsValidCountry(s string) bool {
	return countryRegex.MatchString(s)
}

// IsValidEmail checks if a string looks like an email address
func IsValidEmail(s string) bool {
	return len(s) <= MaxStringLength && emailRegex.MatchString(s)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate runs the given validators and collects their errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// Transaction validates a scoring request payload. All structural checks
// live here so the scorer itself can assume well-formed input.
func Transaction(tx *scoring.Transaction) ValidationErrors {
	return Validate(
		Required("transaction_id", tx.TransactionID),
		MaxLength("transaction_id", tx.TransactionID, MaxStringLength),
		nonNegativeAmount(tx.Amount),
		validCountry(tx.Country),
		hourInRange(tx.Hour),
		nonNegativeAttempts(tx.AttemptsLast10m),
		validThreeDS(tx.ThreeDSResult),
	)
}

func nonNegativeAmount(amount float64) func() *ValidationError {
	return func() *ValidationError {
		if amount < 0 {
			return &ValidationError{Field: "amount", Message: "must not be negative"}
		}
		return nil
	}
}

func validCountry(country string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(country) == "" {
			return &ValidationError{Field: "country", Message: "is required"}
		}
		if !IsValidCountry(country) {
			return &ValidationError{Field: "country", Message: "must be a 2-3 letter country code"}
		}
		return nil
	}
}

func hourInRange(hour int) func() *ValidationError {
	return func() *ValidationError {
		if hour < 0 || hour > 23 {
			return &ValidationError{Field: "hour", Message: "must be between 0 and 23"}
		}
		return nil
	}
}

func nonNegativeAttempts(attempts int) func() *ValidationError {
	return func() *ValidationError {
		if attempts < 0 {
			return &ValidationError{Field: "attempts_last_10m", Message: "must not be negative"}
		}
		return nil
	}
}

func validThreeDS(result string) func() *ValidationError {
	return func() *ValidationError {
		switch result {
		case "", scoring.ThreeDSSuccess, scoring.ThreeDSFailed, scoring.ThreeDSUnavailable:
			return nil
		}
		return &ValidationError{Field: "three_ds_result", Message: "must be success, failed, or unavailable"}
	}
}
