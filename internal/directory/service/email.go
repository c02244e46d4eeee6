package service

import (
	"net/url"
	"strings"
)

// NormalizeEmail lower-cases and trims an address. Every lookup and
// every stored row goes through this, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// actionLink builds an absolute link to a UI route carrying the email
// and raw token as query parameters.
func actionLink(baseURL, path, email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(baseURL, "/") + path + "?" + q.Encode()
}
