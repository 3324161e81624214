package auth

import (
	"errors"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone validates the phone and formats it to E.164. Numbers
// without a country code are interpreted as Russian.
func NormalizePhone(phone string) (string, error) {
	parsed, err := phonenumbers.Parse(phone, "RU")
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
