package federation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type googleClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google ID tokens against Google's published
// JWKS and extracts the holder's profile.
type GoogleVerifier struct {
	clientID string
	keyFunc  jwt.Keyfunc
}

// NewGoogleVerifier constructs a verifier that refreshes Google's JWKS
// in the background.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	jwks, err := keyfunc.Get(googleJWKSURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			// Stale keys remain usable until the next successful refresh.
		},
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}

	return &GoogleVerifier{clientID: clientID, keyFunc: jwks.Keyfunc}, nil
}

// NewGoogleVerifierWithKeyfunc constructs a verifier with an explicit key
// source. Used by tests.
func NewGoogleVerifierWithKeyfunc(clientID string, kf jwt.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keyFunc: kf}
}

// Verify checks the ID token's signature, issuer, audience, and expiry,
// and returns the embedded profile.
func (v *GoogleVerifier) Verify(_ context.Context, credential string) (domain.ExternalProfile, error) {
	claims := &googleClaims{}

	token, err := jwt.ParseWithClaims(credential, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
	)
	if err != nil || !token.Valid {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}

	if !validGoogleIssuer(claims.Issuer) {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}
	if claims.Subject == "" {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}

	first, last := claims.GivenName, claims.FamilyName
	if first == "" && last == "" {
		first, last = splitFullName(claims.Name)
	}

	return domain.ExternalProfile{
		ProviderUserID: claims.Subject,
		Email:          domain.NormalizeEmail(claims.Email),
		FirstName:      first,
		LastName:       last,
		PictureURL:     claims.Picture,
	}, nil
}

func validGoogleIssuer(issuer string) bool {
	for _, allowed := range googleIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

// splitFullName breaks a display name into first and last on the first
// whitespace run.
func splitFullName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}

	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var _ port.IdentityVerifier = (*GoogleVerifier)(nil)
