package clerk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the identity provider sets for same-site sessions.
const SessionCookieName = "__session"

var (
	// ErrMissingToken is returned when the request carries no session token
	ErrMissingToken = errors.New("missing session token")

	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidAuthorizedParty is returned when azp is not an accepted origin
	ErrInvalidAuthorizedParty = errors.New("invalid authorized party")
)

// PublicMetadata is the fixed view over the session's loosely-typed public metadata.
// Only a JSON boolean true sets a flag.
type PublicMetadata struct {
	IsStaff   bool
	IsStudent bool
}

// SessionClaims represents a verified session
type SessionClaims struct {
	UserID          string
	SessionID       string
	AuthorizedParty string
	Metadata        PublicMetadata
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// Config holds configuration for SessionValidator
type Config struct {
	Issuer            string
	JWKSURL           string
	AuthorizedParties []string
	MetadataClaim     string
	RefreshInterval   time.Duration
	HTTPTimeout       time.Duration
	Leeway            time.Duration
}

// SessionValidator verifies session tokens issued by the identity provider
type SessionValidator struct {
	issuer            string
	authorizedParties map[string]struct{}
	metadataClaim     string
	leeway            time.Duration
	keyFunc           jwt.Keyfunc
	jwks              *keyfunc.JWKS
}

// NewSessionValidator fetches the provider JWKS and keeps it refreshed in the background.
func NewSessionValidator(cfg Config) (*SessionValidator, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("jwks url is required")
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Client:            &http.Client{Timeout: cfg.HTTPTimeout},
		RefreshInterval:   cfg.RefreshInterval,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    cfg.HTTPTimeout,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	v := NewSessionValidatorWithKeyfunc(cfg, jwks.Keyfunc)
	v.jwks = jwks
	return v, nil
}

// NewSessionValidatorWithKeyfunc builds a validator around an existing key source
func NewSessionValidatorWithKeyfunc(cfg Config, kf jwt.Keyfunc) *SessionValidator {
	claim := cfg.MetadataClaim
	if claim == "" {
		claim = "metadata"
	}
	leeway := cfg.Leeway
	if leeway == 0 {
		leeway = 5 * time.Second
	}

	parties := make(map[string]struct{}, len(cfg.AuthorizedParties))
	for _, p := range cfg.AuthorizedParties {
		parties[strings.TrimSuffix(p, "/")] = struct{}{}
	}

	return &SessionValidator{
		issuer:            strings.TrimSuffix(cfg.Issuer, "/"),
		authorizedParties: parties,
		metadataClaim:     claim,
		leeway:            leeway,
		keyFunc:           kf,
	}
}

// ValidateToken verifies a session token and returns its claims
func (v *SessionValidator) ValidateToken(ctx context.Context, tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	azp, _ := claims["azp"].(string)
	if azp != "" && len(v.authorizedParties) > 0 {
		if _, ok := v.authorizedParties[strings.TrimSuffix(azp, "/")]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAuthorizedParty, azp)
		}
	}

	sid, _ := claims["sid"].(string)
	parsed := &SessionClaims{
		UserID:          sub,
		SessionID:       sid,
		AuthorizedParty: azp,
		Metadata:        ParsePublicMetadata(claims[v.metadataClaim]),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		parsed.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.ExpiresAt = exp.Time
	}

	return parsed, nil
}

// Close stops the background JWKS refresh
func (v *SessionValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// ParsePublicMetadata reads the staff/student flags from a decoded metadata claim.
// Absent, non-object, or non-boolean values yield false.
func ParsePublicMetadata(raw interface{}) PublicMetadata {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return PublicMetadata{}
	}
	return PublicMetadata{
		IsStaff:   isTrue(m["isStaff"]),
		IsStudent: isTrue(m["isStudent"]),
	}
}

func isTrue(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

// ExtractSessionToken returns the bearer token or, failing that, the session cookie
func ExtractSessionToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
