package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// StaticAuthenticator accepts a fixed set of bearer tokens, each bound to a subject.
type StaticAuthenticator struct {
	tokens map[string]string
}

// NewStaticAuthenticator maps token -> subject.
func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	copied := make(map[string]string, len(tokens))
	for token, subject := range tokens {
		copied[token] = subject
	}
	return &StaticAuthenticator{tokens: copied}
}

func (a *StaticAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}
	for token, subject := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) == 1 {
			return Claims{Subject: subject}, nil
		}
	}
	return Claims{}, ErrInvalidToken
}

// extractBearer pulls the token out of "Authorization: Bearer <token>".
func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingBearer
	}
	rest, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrInvalidToken
	}
	if token := strings.TrimSpace(rest); token != "" {
		return token, nil
	}
	return "", ErrInvalidToken
}
