// Package auth guards the administrative endpoints with Firebase ID tokens.
// A caller must present a valid token whose custom claims carry admin=true.
package auth

import (
	"context"
	"errors"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// AdminClaim is the custom claim granting access to guarded operations.
const AdminClaim = "admin"

// SecurityScheme is the OpenAPI scheme name guarded operations declare.
const SecurityScheme = "bearer"

// Operator is the authenticated caller of a guarded operation.
type Operator struct {
	UID   string
	Email string
	Admin bool
}

// Error types for authentication failures.
var (
	ErrNoToken      = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrUserDisabled = errors.New("user disabled")
	ErrNotAdmin     = errors.New("admin claim required")

	// ErrCertificateFetch results in HTTP 503.
	ErrCertificateFetch = errors.New("failed to fetch certificates")
)

// Verifier validates tokens and returns the caller.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Operator, error)
}

// FirebaseVerifier implements Verifier using the Firebase Admin SDK.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a new verifier with the given auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify validates a Firebase ID token and checks for revocation.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Operator, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		switch {
		case fbauth.IsCertificateFetchFailed(err):
			return nil, ErrCertificateFetch
		case fbauth.IsIDTokenExpired(err):
			return nil, ErrTokenExpired
		case fbauth.IsIDTokenRevoked(err):
			return nil, ErrTokenRevoked
		case fbauth.IsUserDisabled(err):
			return nil, ErrUserDisabled
		default:
			return nil, ErrInvalidToken
		}
	}
	return operatorFromClaims(token.UID, token.Claims), nil
}

func operatorFromClaims(uid string, claims map[string]any) *Operator {
	email, _ := claims["email"].(string)
	admin, _ := claims[AdminClaim].(bool)
	return &Operator{UID: uid, Email: email, Admin: admin}
}

// ExtractBearerToken extracts the token from the Authorization header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// Compile-time interface check
var _ Verifier = (*FirebaseVerifier)(nil)
