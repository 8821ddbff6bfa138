package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
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
	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/config"
)

const (
	rsaKid        = "ventas-rsa-2026"
	ecKid         = "ventas-ec-2026"
	sellerSubject = "seller-7"
)

// signer is a stand-in identity provider: two signing keys and a JWKS
// endpoint publishing them.
type signer struct {
	rsaKey *rsa.PrivateKey
	ecKey  *ecdsa.PrivateKey
	server *httptest.Server
	hits   int
}

func newSigner(t *testing.T) *signer {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ec key: %v", err)
	}

	s := &signer{rsaKey: rsaKey, ecKey: ecKey}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwksDocument{Keys: []jwk{
			{
				Kid: rsaKid,
				Kty: "RSA",
				N:   base64.RawURLEncoding.EncodeToString(rsaKey.PublicKey.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(rsaKey.PublicKey.E)).Bytes()),
			},
			{
				Kid: ecKid,
				Kty: "EC",
				Crv: "P-256",
				X:   base64.RawURLEncoding.EncodeToString(ecKey.PublicKey.X.Bytes()),
				Y:   base64.RawURLEncoding.EncodeToString(ecKey.PublicKey.Y.Bytes()),
			},
		}})
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *signer) cache(ttl time.Duration) *JWKSCache {
	return NewJWKSCache(s.server.URL, ttl, zap.NewNop())
}

// tokenSpec describes a token to mint. The zero adjustments produce a
// token the authenticator accepts.
type tokenSpec struct {
	issuer   string
	audience string
	kid      string
	subject  string
	method   jwt.SigningMethod
	key      any
	expires  time.Time
	dropExp  bool
	dropSub  bool
}

func (s *signer) mint(t *testing.T, adjust func(*tokenSpec)) string {
	t.Helper()

	spec := tokenSpec{
		issuer:   sellerConsoleIdentity().Issuer,
		audience: sellerConsoleIdentity().Audience,
		kid:      rsaKid,
		subject:  sellerSubject,
		method:   jwt.SigningMethodRS256,
		key:      s.rsaKey,
		expires:  time.Now().Add(time.Hour),
	}
	if adjust != nil {
		adjust(&spec)
	}

	claims := jwt.MapClaims{
		"iss":   spec.issuer,
		"aud":   spec.audience,
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(spec.expires),
		"sub":   spec.subject,
		"roles": []any{"sales"},
	}
	if spec.dropExp {
		delete(claims, "exp")
	}
	if spec.dropSub {
		delete(claims, "sub")
	}

	token := jwt.NewWithClaims(spec.method, claims)
	token.Header["kid"] = spec.kid
	signed, err := token.SignedString(spec.key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func sellerConsoleIdentity() config.IdentityConfig {
	return config.IdentityConfig{
		Issuer:     "https://login.andeantech.dev",
		Audience:   "ventas-console",
		Algorithms: []string{"RS256", "ES256"},
	}
}

func TestJWKSCacheServesBothKeyTypes(t *testing.T) {
	s := newSigner(t)
	cache := s.cache(time.Hour)

	key, err := cache.Key(rsaKid)
	if err != nil {
		t.Fatalf("Key(%s): %v", rsaKid, err)
	}
	if _, ok := key.(*rsa.PublicKey); !ok {
		t.Errorf("key type = %T, want *rsa.PublicKey", key)
	}

	key, err = cache.Key(ecKid)
	if err != nil {
		t.Fatalf("Key(%s): %v", ecKid, err)
	}
	if _, ok := key.(*ecdsa.PublicKey); !ok {
		t.Errorf("key type = %T, want *ecdsa.PublicKey", key)
	}
}

func TestJWKSCacheUnknownKid(t *testing.T) {
	s := newSigner(t)
	if _, err := s.cache(time.Hour).Key("retired-2019"); err == nil {
		t.Error("a kid the provider never published should fail")
	}
}

func TestJWKSCacheFetchesOnceWhileFresh(t *testing.T) {
	s := newSigner(t)
	cache := s.cache(time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := cache.Key(rsaKid); err != nil {
			t.Fatalf("Key: %v", err)
		}
	}
	if s.hits != 1 {
		t.Errorf("jwks fetches = %d, want 1", s.hits)
	}
}

func TestJWKSCacheServesStaleKeysWhenProviderIsDown(t *testing.T) {
	s := newSigner(t)
	// Zero TTL: every lookup wants a refresh.
	cache := s.cache(0)

	if _, err := cache.Key(rsaKid); err != nil {
		t.Fatalf("first Key: %v", err)
	}
	s.server.Close()

	key, err := cache.Key(rsaKid)
	if err != nil {
		t.Fatalf("Key after provider outage: %v", err)
	}
	if _, ok := key.(*rsa.PublicKey); !ok {
		t.Errorf("stale key type = %T", key)
	}
}

func authProbe(t *testing.T, s *signer, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var seenClaims map[string]any
	var seenToken string
	handler := JWTAuthenticator(sellerConsoleIdentity(), s.cache(time.Hour))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenClaims = ClaimsFrom(r.Context())
			seenToken = TokenFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/ui/report-filter/descriptor", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && seenToken != token {
		t.Error("raw token not available for backend passthrough")
	}
	return rec, seenClaims
}

func TestJWTAuthenticatorAcceptsSellerToken(t *testing.T) {
	s := newSigner(t)

	rec, claims := authProbe(t, s, s.mint(t, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if claims["sub"] != sellerSubject {
		t.Errorf("sub = %v, want %s", claims["sub"], sellerSubject)
	}
}

func TestJWTAuthenticatorAcceptsECToken(t *testing.T) {
	s := newSigner(t)

	token := s.mint(t, func(spec *tokenSpec) {
		spec.kid = ecKid
		spec.method = jwt.SigningMethodES256
		spec.key = s.ecKey
	})
	if rec, _ := authProbe(t, s, token); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
}

func TestJWTAuthenticatorToleratesClockSkew(t *testing.T) {
	s := newSigner(t)

	// Expired 15s ago, inside the 30s leeway.
	token := s.mint(t, func(spec *tokenSpec) {
		spec.expires = time.Now().Add(-15 * time.Second)
	})
	if rec, _ := authProbe(t, s, token); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 within leeway", rec.Code)
	}
}

func TestJWTAuthenticatorRejections(t *testing.T) {
	s := newSigner(t)
	foreignKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"noToken", ""},
		{"garbage", "not.a.jwt"},
		{"expired", s.mint(t, func(spec *tokenSpec) {
			spec.expires = time.Now().Add(-time.Hour)
		})},
		{"foreignIssuer", s.mint(t, func(spec *tokenSpec) {
			spec.issuer = "https://intruder.example.com"
		})},
		{"foreignAudience", s.mint(t, func(spec *tokenSpec) {
			spec.audience = "some-other-console"
		})},
		{"symmetricAlgorithm", s.mint(t, func(spec *tokenSpec) {
			spec.method = jwt.SigningMethodHS256
			spec.key = []byte("shared-secret")
		})},
		{"unknownKid", s.mint(t, func(spec *tokenSpec) {
			spec.kid = "rotated-away"
		})},
		{"wrongSigningKey", s.mint(t, func(spec *tokenSpec) {
			spec.key = foreignKey
		})},
		{"noExpiry", s.mint(t, func(spec *tokenSpec) {
			spec.dropExp = true
		})},
		{"noSubject", s.mint(t, func(spec *tokenSpec) {
			spec.dropSub = true
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := authProbe(t, s, tc.token)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRejectionReasons(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{jwt.ErrTokenExpired, "token is expired"},
		{jwt.ErrTokenInvalidIssuer, "token issuer is not trusted"},
		{jwt.ErrTokenInvalidAudience, "token is for a different audience"},
		{jwt.ErrTokenSignatureInvalid, "token signature is not valid"},
		{jwt.ErrTokenMalformed, "token is not valid"},
	}
	for _, tc := range cases {
		if got := rejectionReason(tc.err); got != tc.want {
			t.Errorf("rejectionReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
