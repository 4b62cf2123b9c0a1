package identity

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier validates Google ID tokens against Google's published keys.
type GoogleVerifier struct {
	audience string
	validate validateFunc
}

// NewGoogleVerifier creates a verifier that accepts tokens minted for clientID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientID, validate: idtoken.Validate}
}

// Verify validates the token and extracts the account's identity.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		slog.Debug("google id token rejected", "error", err)
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return Identity{}, fmt.Errorf("%w: email not verified", ErrInvalidToken)
	}

	return fromClaims(payload.Subject, payload.Claims), nil
}
