package auth

import (
	"context"
	"fmt"
	"ms-rsvp/internal/config"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (subject string, err error)
}

// HMACVerifier accepts HS256 tokens signed with the shared admin secret.
type HMACVerifier struct {
	Secret []byte
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (string, error) {
	var claims AdminClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != AdminRole {
		return "", ErrNotAdmin
	}
	return claims.Subject, nil
}

// OIDCVerifier accepts ID tokens issued by the configured provider for the
// configured audience. The token must name an admin: its subject is listed in
// AdminSubjects, or it carries AdminRole in role, roles, groups or the
// Keycloak realm_access roles.
type OIDCVerifier struct {
	AdminRole     string
	AdminSubjects []string

	verifier *oidc.IDTokenVerifier
}

type oidcClaims struct {
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	Groups      []string `json:"groups"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

func NewOIDCVerifier(ctx context.Context, cfg config.AuthConfig) (*OIDCVerifier, error) {
	if cfg.OIDCAudience == "" {
		return nil, ErrAudienceRequired
	}
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return newOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.OIDCAudience}), cfg), nil
}

func newOIDCVerifier(v *oidc.IDTokenVerifier, cfg config.AuthConfig) *OIDCVerifier {
	role := cfg.OIDCAdminRole
	if role == "" {
		role = AdminRole
	}
	return &OIDCVerifier{AdminRole: role, AdminSubjects: cfg.OIDCAdminSubjects, verifier: v}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if slices.Contains(v.AdminSubjects, idToken.Subject) {
		return idToken.Subject, nil
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role == v.AdminRole ||
		slices.Contains(claims.Roles, v.AdminRole) ||
		slices.Contains(claims.Groups, v.AdminRole) ||
		slices.Contains(claims.RealmAccess.Roles, v.AdminRole) {
		return idToken.Subject, nil
	}
	return "", ErrNotAdmin
}

// NewVerifier picks OIDC when an issuer is configured, then the shared secret.
// It returns nil when neither is set, which leaves admin routes open.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (TokenVerifier, error) {
	switch {
	case cfg.OIDCIssuer != "":
		v, err := NewOIDCVerifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	case cfg.JWTSecret != "":
		return &HMACVerifier{Secret: []byte(cfg.JWTSecret)}, nil
	default:
		return nil, nil
	}
}
