package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailValidator = validator.New()

// Email is a normalized (trimmed, lower case) e-mail address. The zero value
// means "no address" and is stored as NULL.
type Email string

// ParseEmail normalizes s and checks that it is a single address.
// An empty string yields the zero Email.
func ParseEmail(s string) (Email, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}

	if err := emailValidator.Var(s, "email"); err != nil {
		return "", fmt.Errorf("invalid email address %q", s)
	}

	return Email(s), nil
}

func (e Email) String() string {
	return string(e)
}

func (e Email) IsZero() bool {
	return e == ""
}

// UnmarshalJSON parses and normalizes the address, so invalid input is
// rejected while binding the request.
func (e *Email) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*e = ""
		return nil
	}

	parsed, err := ParseEmail(*s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
