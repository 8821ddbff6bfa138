package transport

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/model"
)

// clockSkewLeeway absorbs small clock drift between the console's identity
// provider and this service when checking exp and nbf.
const clockSkewLeeway = 30 * time.Second

// jwksDocument is the identity provider's published key set.
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// jwk is one published signing key. Only the members needed to rebuild an
// RSA or EC public key are read.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// publicKey rebuilds the verification key this entry describes.
func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := b64BigInt(k.N)
		if err != nil {
			return nil, fmt.Errorf("modulus: %w", err)
		}
		e, err := b64BigInt(k.E)
		if err != nil {
			return nil, fmt.Errorf("exponent: %w", err)
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported curve %q", k.Crv)
		}
		x, err := b64BigInt(k.X)
		if err != nil {
			return nil, fmt.Errorf("x coordinate: %w", err)
		}
		y, err := b64BigInt(k.Y)
		if err != nil {
			return nil, fmt.Errorf("y coordinate: %w", err)
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

func b64BigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty value")
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// JWKSCache resolves token signing keys from the identity provider's JWKS
// endpoint. Keys are cached for the configured TTL; when a refresh fails
// the stale set keeps serving so a provider outage does not log every
// seller out at once.
type JWKSCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	keys    map[string]crypto.PublicKey
	fetched time.Time
}

// NewJWKSCache creates a cache over the JWKS endpoint at url.
func NewJWKSCache(url string, ttl time.Duration, logger *zap.Logger) *JWKSCache {
	return &JWKSCache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Key returns the verification key published under kid, refreshing the
// cached set when it is missing or stale.
func (c *JWKSCache) Key(kid string) (crypto.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok && time.Since(c.fetched) < c.ttl {
		return key, nil
	}

	fresh, err := c.fetch()
	if err != nil {
		// Stale keys beat no keys.
		if key, ok := c.keys[kid]; ok {
			c.logger.Warn("jwks refresh failed, serving cached key", zap.Error(err))
			return key, nil
		}
		return nil, fmt.Errorf("jwks: %w", err)
	}
	c.keys = fresh
	c.fetched = time.Now()

	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("jwks: no key published for kid %q", kid)
	}
	return key, nil
}

func (c *JWKSCache) fetch() (map[string]crypto.PublicKey, error) {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding key set: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, entry := range doc.Keys {
		if entry.Kid == "" {
			continue
		}
		key, err := entry.publicKey()
		if err != nil {
			c.logger.Warn("skipping unusable jwks entry",
				zap.String("kid", entry.Kid),
				zap.Error(err),
			)
			continue
		}
		keys[entry.Kid] = key
	}
	return keys, nil
}

// JWTAuthenticator verifies the bearer token on every console request.
// Tokens must carry a subject: filter sessions are scoped per seller, so an
// anonymous token has nothing it could own. Verified claims and the raw
// token (for backend passthrough) land in the request context.
func JWTAuthenticator(cfg config.IdentityConfig, keys *JWKSCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				WriteError(w, model.NewUnauthorizedError("missing bearer token"))
				return
			}

			token, err := jwt.Parse(raw,
				func(t *jwt.Token) (any, error) {
					kid, _ := t.Header["kid"].(string)
					if kid == "" {
						return nil, errors.New("token header has no kid")
					}
					return keys.Key(kid)
				},
				jwt.WithValidMethods(cfg.Algorithms),
				jwt.WithIssuer(cfg.Issuer),
				jwt.WithAudience(cfg.Audience),
				jwt.WithLeeway(clockSkewLeeway),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				WriteError(w, model.NewUnauthorizedError(rejectionReason(err)))
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				WriteError(w, model.NewUnauthorizedError("token is not valid"))
				return
			}
			if subject, _ := claims["sub"].(string); subject == "" {
				WriteError(w, model.NewUnauthorizedError("token has no subject"))
				return
			}

			ctx := WithClaims(r.Context(), map[string]any(claims))
			ctx = WithToken(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rejectionReason turns a verification failure into a stable client-facing
// message. The switch leans on the jwt/v5 sentinel errors rather than the
// error text.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token issuer is not trusted"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token is for a different audience"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "token signature is not valid"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "token is missing a required claim"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token signing key is not known"
	default:
		return "token is not valid"
	}
}
