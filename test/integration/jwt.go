package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestClaims describes the seller identity a minted token carries.
type TestClaims struct {
	SubjectID string
	Email     string
	Roles     []string
	Extra     map[string]any
}

// tokenIssuer mints console tokens for tests and publishes the matching
// JWKS endpoint, standing in for the sales platform's identity provider.
type tokenIssuer struct {
	key      *rsa.PrivateKey
	kid      string
	jwks     *httptest.Server
	issuer   string
	audience string
}

func newTokenIssuer(t *testing.T) *tokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating issuer key: %v", err)
	}

	ti := &tokenIssuer{
		key:      key,
		kid:      "ventas-test-key",
		issuer:   "https://auth.test.andeantech.dev",
		audience: "ventas-bff-test",
	}

	document, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kid": ti.kid,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	if err != nil {
		t.Fatalf("encoding jwks: %v", err)
	}

	ti.jwks = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(document)
	}))
	t.Cleanup(ti.jwks.Close)
	return ti
}

// GenerateToken mints a token the BFF accepts, valid for one hour.
func (ti *tokenIssuer) GenerateToken(claims TestClaims) string {
	now := time.Now()
	return ti.sign(claims, now, now.Add(time.Hour))
}

// GenerateExpiredToken mints a token whose validity window closed an hour
// ago.
func (ti *tokenIssuer) GenerateExpiredToken(claims TestClaims) string {
	now := time.Now()
	return ti.sign(claims, now.Add(-2*time.Hour), now.Add(-time.Hour))
}

func (ti *tokenIssuer) sign(claims TestClaims, issuedAt, expiresAt time.Time) string {
	payload := jwt.MapClaims{
		"iss": ti.issuer,
		"aud": ti.audience,
		"iat": jwt.NewNumericDate(issuedAt),
		"exp": jwt.NewNumericDate(expiresAt),
		"sub": claims.SubjectID,
	}
	if claims.Email != "" {
		payload["email"] = claims.Email
	}
	if len(claims.Roles) > 0 {
		// []any mirrors what a JSON round trip would produce.
		roles := make([]any, 0, len(claims.Roles))
		for _, role := range claims.Roles {
			roles = append(roles, role)
		}
		payload["roles"] = roles
	}
	for k, v := range claims.Extra {
		payload[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	token.Header["kid"] = ti.kid
	signed, err := token.SignedString(ti.key)
	if err != nil {
		panic("signing test token: " + err.Error())
	}
	return signed
}

func (ti *tokenIssuer) JWKSURL() string  { return ti.jwks.URL }
func (ti *tokenIssuer) Issuer() string   { return ti.issuer }
func (ti *tokenIssuer) Audience() string { return ti.audience }
