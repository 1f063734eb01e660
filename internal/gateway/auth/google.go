package auth

import (
	"context"
	"strings"

	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	userservice "github.com/kiribu/money-tracker/internal/user/service"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

// Verifier turns a sign-in credential into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*userservice.Identity, error)
}

// GoogleVerifier validates Google ID tokens issued for clientID.
type GoogleVerifier struct {
	clientID string
	logger   *zap.Logger
}

func NewGoogleVerifier(clientID string, logger *zap.Logger) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, logger: logger}
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*userservice.Identity, error) {
	payload, err := idtoken.Validate(ctx, credential, v.clientID)
	if err != nil {
		v.logger.Warn("rejected Google ID token", zap.Error(err))
		return nil, apperr.Unauthenticated("invalid Google credential")
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, apperr.Unauthenticated("Google email is not verified")
	}

	identity := &userservice.Identity{
		GoogleID: payload.Subject,
		Email:    claimString(payload.Claims, "email"),
		Name:     claimString(payload.Claims, "name"),
		Picture:  claimString(payload.Claims, "picture"),
		Locale:   claimString(payload.Claims, "locale"),
	}
	if identity.GoogleID == "" || identity.Email == "" {
		return nil, apperr.Unauthenticated("Google credential has no subject or email")
	}
	return identity, nil
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// DevVerifier accepts an email address as the credential. For local development only.
type DevVerifier struct{}

func (DevVerifier) Verify(ctx context.Context, credential string) (*userservice.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(credential))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return nil, apperr.Unauthenticated("development credential must be an email address")
	}
	return &userservice.Identity{
		GoogleID: "dev-" + email,
		Email:    email,
		Name:     email[:at],
	}, nil
}
