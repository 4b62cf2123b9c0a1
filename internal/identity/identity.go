// Package identity verifies ID tokens issued by external identity providers.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrDisabled     = errors.New("federated login is disabled")
)

// Identity is what a provider vouches for after verifying a token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Verifier checks an ID token with the provider that issued it.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Disabled rejects every token. It is used when no provider is configured.
type Disabled struct{}

// Verify always fails with ErrDisabled.
func (Disabled) Verify(context.Context, string) (Identity, error) {
	return Identity{}, ErrDisabled
}

func fromClaims(subject string, claims map[string]any) Identity {
	return Identity{
		Subject: subject,
		Email:   strings.ToLower(strings.TrimSpace(claimString(claims, "email"))),
		Name:    strings.TrimSpace(claimString(claims, "name")),
		Picture: claimString(claims, "picture"),
	}
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
