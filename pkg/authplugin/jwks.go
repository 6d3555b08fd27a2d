package authplugin

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwk is a single JSON Web Key as returned by a JWKS endpoint. Only the
// fields needed to reconstruct an RSA public key are modeled; EC/octet
// keys are out of scope (§1 non-goals restrict cryptographic validation to
// bearer-token checks against a fetched JWKS, not a general-purpose JOSE
// implementation).
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type openIDConfiguration struct {
	JWKSURI string `json:"jwks_uri"`
}

// KeySource fetches and caches a JWKS, handing back a jwt.Keyfunc that
// resolves a token's "kid" header against the cached keys. Grounded on the
// same prefetch-then-cache-by-kid shape as the jwt-middleware example
// (fetchKeys/getKey), simplified to RSA-only and to a single issuer per
// instance.
type KeySource struct {
	httpClient *http.Client
	jwksURL    string

	mu       sync.RWMutex
	keys     map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeySource builds a KeySource that fetches keys from jwksURL directly.
func NewKeySource(jwksURL string, httpClient *http.Client) *KeySource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &KeySource{httpClient: httpClient, jwksURL: jwksURL, keys: map[string]*rsa.PublicKey{}}
}

// NewKeySourceFromIssuer resolves jwks_uri from issuer's OpenID discovery
// document (issuer + "/.well-known/openid-configuration"), falling back to
// issuer + "/.well-known/jwks.json" if discovery fails — the same fallback
// the reference jwt-middleware implementation uses.
func NewKeySourceFromIssuer(issuer string, httpClient *http.Client) (*KeySource, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	issuer = strings.TrimSuffix(issuer, "/")

	jwksURL := issuer + "/.well-known/jwks.json"
	resp, err := httpClient.Get(issuer + "/.well-known/openid-configuration")
	if err == nil {
		defer resp.Body.Close()
		var cfg openIDConfiguration
		if json.NewDecoder(resp.Body).Decode(&cfg) == nil && cfg.JWKSURI != "" {
			jwksURL = cfg.JWKSURI
		}
	}
	return NewKeySource(jwksURL, httpClient), nil
}

// Refresh fetches the JWKS document and replaces the cached key set.
func (s *KeySource) Refresh() error {
	resp, err := s.httpClient.Get(s.jwksURL)
	if err != nil {
		return fmt.Errorf("authplugin: fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authplugin: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("authplugin: decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Keyfunc returns a jwt.Keyfunc that resolves a token's "kid" header
// against the cached key set, refreshing once on a cache miss (a rotated
// signing key is the common reason a kid isn't found yet).
func (s *KeySource) Keyfunc() jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if key, ok := s.lookup(kid); ok {
			return key, nil
		}
		if err := s.Refresh(); err != nil {
			return nil, err
		}
		if key, ok := s.lookup(kid); ok {
			return key, nil
		}
		return nil, fmt.Errorf("authplugin: no key found for kid %q", kid)
	}
}

func (s *KeySource) lookup(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	return key, ok
}

func rsaPublicKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("authplugin: decode jwk modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("authplugin: decode jwk exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
