package clerk

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://clerk.example.com"
	testKID    = "ins_test_key"
)

// Test helper to generate RSA key pair
func generateTestKeyPair(t *testing.T) *rsa.PrivateKey {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey
}

func testJWKS(t *testing.T, publicKey *rsa.PublicKey) json.RawMessage {
	raw, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kid": testKID,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
		}},
	})
	require.NoError(t, err)
	return raw
}

func newTestValidator(t *testing.T, privateKey *rsa.PrivateKey, parties ...string) *SessionValidator {
	jwks, err := keyfunc.NewJSON(testJWKS(t, &privateKey.PublicKey))
	require.NoError(t, err)
	return NewSessionValidatorWithKeyfunc(Config{
		Issuer:            testIssuer,
		AuthorizedParties: parties,
	}, jwks.Keyfunc)
}

func signToken(t *testing.T, privateKey *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user_2abc",
		"sid": "sess_123",
		"azp": "https://app.example.com",
		"iat": now.Unix(),
		"nbf": now.Add(-time.Second).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func TestSessionValidator_ValidateToken(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	otherKey := generateTestKeyPair(t)
	validator := newTestValidator(t, privateKey, "https://app.example.com")

	tests := []struct {
		name    string
		token   func() string
		wantErr error
		check   func(*testing.T, *SessionClaims)
	}{
		{
			name: "valid staff session",
			token: func() string {
				c := baseClaims()
				c["metadata"] = map[string]interface{}{"isStaff": true}
				return signToken(t, privateKey, c)
			},
			check: func(t *testing.T, s *SessionClaims) {
				assert.Equal(t, "user_2abc", s.UserID)
				assert.Equal(t, "sess_123", s.SessionID)
				assert.True(t, s.Metadata.IsStaff)
				assert.False(t, s.Metadata.IsStudent)
				assert.False(t, s.ExpiresAt.IsZero())
			},
		},
		{
			name: "string flags are not booleans",
			token: func() string {
				c := baseClaims()
				c["metadata"] = map[string]interface{}{"isStaff": "true", "isStudent": 1}
				return signToken(t, privateKey, c)
			},
			check: func(t *testing.T, s *SessionClaims) {
				assert.Equal(t, PublicMetadata{}, s.Metadata)
			},
		},
		{
			name: "missing metadata claim",
			token: func() string {
				return signToken(t, privateKey, baseClaims())
			},
			check: func(t *testing.T, s *SessionClaims) {
				assert.Equal(t, PublicMetadata{}, s.Metadata)
			},
		},
		{
			name:    "empty token",
			token:   func() string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name: "expired token",
			token: func() string {
				c := baseClaims()
				c["exp"] = time.Now().Add(-time.Hour).Unix()
				return signToken(t, privateKey, c)
			},
			wantErr: ErrTokenExpired,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := baseClaims()
				c["iss"] = "https://evil.example.com"
				return signToken(t, privateKey, c)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "signed by unknown key",
			token: func() string {
				return signToken(t, otherKey, baseClaims())
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing expiry",
			token: func() string {
				c := baseClaims()
				delete(c, "exp")
				return signToken(t, privateKey, c)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "unaccepted authorized party",
			token: func() string {
				c := baseClaims()
				c["azp"] = "https://other.example.com"
				return signToken(t, privateKey, c)
			},
			wantErr: ErrInvalidAuthorizedParty,
		},
		{
			name: "missing subject",
			token: func() string {
				c := baseClaims()
				delete(c, "sub")
				return signToken(t, privateKey, c)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := validator.ValidateToken(context.Background(), tt.token())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			if tt.check != nil {
				tt.check(t, claims)
			}
		})
	}
}

func TestSessionValidator_CustomMetadataClaim(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	jwks, err := keyfunc.NewJSON(testJWKS(t, &privateKey.PublicKey))
	require.NoError(t, err)

	validator := NewSessionValidatorWithKeyfunc(Config{MetadataClaim: "public_metadata"}, jwks.Keyfunc)

	c := baseClaims()
	c["public_metadata"] = map[string]interface{}{"isStudent": true}
	c["metadata"] = map[string]interface{}{"isStaff": true}

	claims, err := validator.ValidateToken(context.Background(), signToken(t, privateKey, c))
	require.NoError(t, err)
	assert.True(t, claims.Metadata.IsStudent)
	assert.False(t, claims.Metadata.IsStaff)
}

func TestNewSessionValidator_FetchesJWKS(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(testJWKS(t, &privateKey.PublicKey))
	}))
	defer server.Close()

	validator, err := NewSessionValidator(Config{Issuer: testIssuer, JWKSURL: server.URL})
	require.NoError(t, err)
	defer validator.Close()

	claims, err := validator.ValidateToken(context.Background(), signToken(t, privateKey, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", claims.UserID)
}

func TestNewSessionValidator_RequiresURL(t *testing.T) {
	_, err := NewSessionValidator(Config{})
	assert.Error(t, err)
}

func TestParsePublicMetadata(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want PublicMetadata
	}{
		{name: "nil", raw: nil, want: PublicMetadata{}},
		{name: "not an object", raw: "staff", want: PublicMetadata{}},
		{name: "both flags", raw: map[string]interface{}{"isStaff": true, "isStudent": true}, want: PublicMetadata{IsStaff: true, IsStudent: true}},
		{name: "false flag", raw: map[string]interface{}{"isStaff": false}, want: PublicMetadata{}},
		{name: "unrelated keys", raw: map[string]interface{}{"role": "Admin"}, want: PublicMetadata{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePublicMetadata(tt.raw))
		})
	}
}

func TestExtractSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "cookie fallback", cookie: "xyz", want: "xyz"},
		{name: "header wins over cookie", header: "Bearer abc", cookie: "xyz", want: "abc"},
		{name: "basic auth ignored", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, ExtractSessionToken(req))
		})
	}
}
