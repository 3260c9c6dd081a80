package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing or checks.
var ErrInvalidToken = errors.New("invalid token")

// Verifier checks a bearer token and returns the external user id it names
// (the "sub" claim).
type Verifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier returns a verifier for HS256 tokens. An empty issuer skips
// the "iss" check.
func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (string, error) {
	return parseSubject(raw, v.issuer, "HS256", func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
}

// JWKSVerifier accepts RS256 tokens whose signing key is published at a
// JWKS URL. Keys are cached by kid and refreshed when a kid is unknown or
// the cache has expired.
type JWKSVerifier struct {
	url    string
	ttl    time.Duration
	issuer string
	client *http.Client

	mu    sync.RWMutex
	keys  map[string]*rsa.PublicKey
	expAt time.Time
}

// NewJWKSVerifier returns a verifier backed by the JWKS document at url.
func NewJWKSVerifier(url, issuer string, ttl time.Duration) *JWKSVerifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWKSVerifier{
		url:    url,
		ttl:    ttl,
		issuer: issuer,
		client: &http.Client{Timeout: 5 * time.Second},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (string, error) {
	return parseSubject(raw, v.issuer, "RS256", func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		return v.key(ctx, kid)
	})
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	pk, ok := v.keys[kid]
	fresh := time.Now().Before(v.expAt)
	v.mu.RUnlock()
	if ok && fresh {
		return pk, nil
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if pk, ok := v.keys[kid]; ok {
		return pk, nil
	}
	return nil, fmt.Errorf("kid %q not found in JWKS", kid)
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil || len(eb) == 0 {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}
	}

	v.mu.Lock()
	v.keys = keys
	v.expAt = time.Now().Add(v.ttl)
	v.mu.Unlock()
	return nil
}

func parseSubject(raw, issuer, method string, keyFn jwt.Keyfunc) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, keyFn, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
