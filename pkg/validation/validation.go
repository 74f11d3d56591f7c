package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Field shape constants
const (
	MinNameLength         = 2
	MinSerialNumberLength = 5
	MaxFieldLength        = 255
	MinPasswordLength     = 6
)

var (
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lettersOnly = regexp.MustCompile(`^[A-Za-z\s]+$`)
	phoneRegex  = regexp.MustCompile(`^[0-9]{8,15}$`)
	serialRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidateEmail validates the basic shape of an email address
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePersonName validates names made of letters and spaces only
func ValidatePersonName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("is required")
	}
	if len(trimmed) < MinNameLength {
		return fmt.Errorf("must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxFieldLength {
		return fmt.Errorf("cannot exceed %d characters", MaxFieldLength)
	}
	if !lettersOnly.MatchString(name) {
		return fmt.Errorf("must contain letters and spaces only")
	}
	return nil
}

// ValidateOptionalWords validates an optional letters-and-spaces field such as position or department
func ValidateOptionalWords(value string) error {
	if value == "" {
		return nil
	}
	return ValidatePersonName(value)
}

// ValidatePhoneNumber validates an optional phone number of 8 to 15 digits
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("must be 8 to 15 digits")
	}
	return nil
}

// ValidateSerialNumber validates an optional serial number
func ValidateSerialNumber(serial string) error {
	if serial == "" {
		return nil
	}
	if len(serial) < MinSerialNumberLength {
		return fmt.Errorf("must be at least %d characters", MinSerialNumberLength)
	}
	if len(serial) > MaxFieldLength {
		return fmt.Errorf("cannot exceed %d characters", MaxFieldLength)
	}
	if !serialRegex.MatchString(serial) {
		return fmt.Errorf("may only contain letters, digits, '-' and '_'")
	}
	return nil
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	if len(value) > MaxFieldLength {
		return fmt.Errorf("cannot exceed %d characters", MaxFieldLength)
	}
	return nil
}

// ValidatePrice checks that a purchase price is not negative
func ValidatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// ValidatePassword checks the minimum password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// dateLayouts are the accepted input formats for date fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// ParseDate parses a date given as YYYY-MM-DD or RFC 3339
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
