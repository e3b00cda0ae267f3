package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number is not 10 digits after the country code
	ErrInvalidLength = errors.New("phone number must be 10 digits, optionally prefixed with 1")

	// ErrInvalidAreaCode indicates a NANP area code starting with 0 or 1
	ErrInvalidAreaCode = errors.New("area code cannot start with 0 or 1")

	// ErrInvalidExchange indicates a NANP exchange code starting with 0 or 1
	ErrInvalidExchange = errors.New("exchange code cannot start with 0 or 1")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator validates US (NANP) phone numbers
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a US phone number.
// Accepts 2145550123, (214) 555-0123, +1 214 555 0123 and similar.
// Returns the number in E.164 form (+12145550123).
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) == 11 && sanitized[0] == '1' {
		sanitized = sanitized[1:]
	}
	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	if sanitized[0] == '0' || sanitized[0] == '1' {
		return "", ErrInvalidAreaCode
	}
	if sanitized[3] == '0' || sanitized[3] == '1' {
		return "", ErrInvalidExchange
	}

	return "+1" + sanitized, nil
}

// Sanitize removes common separators from phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "").Replace(phone)
}

// Format formats a phone number for display: (214) 555-0123
func (v *PhoneValidator) Format(phone string) (string, error) {
	e164, err := v.Validate(phone)
	if err != nil {
		return "", err
	}
	digits := e164[2:]
	return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10]), nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
