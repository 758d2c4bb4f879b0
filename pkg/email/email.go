// Package email normalizes contact addresses supplied at registration.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

var ErrInvalid = errors.New("invalid email address")

// Normalize trims the address, checks it parses as a bare addr-spec and
// lowercases the domain part.
func Normalize(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" || len(address) > 254 {
		return "", ErrInvalid
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Name != "" || parsed.Address != address {
		return "", ErrInvalid
	}
	at := strings.LastIndexByte(address, '@')
	if at <= 0 || at == len(address)-1 || !strings.Contains(address[at+1:], ".") {
		return "", ErrInvalid
	}
	return address[:at] + "@" + strings.ToLower(address[at+1:]), nil
}
