package crudplugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMode selects how a CRUD API (or a single action overriding it)
// authorizes requests (§4.8 "Authorization").
type AuthMode string

const (
	AuthNone  AuthMode = "none"
	AuthEntra AuthMode = "entra"
)

// EntraAuthConfig mirrors the OpenID-configuration-driven validation
// parameters for the entra auth mode (§4.8): issuer, audience and signing
// key are each independently configurable, since a test fixture rarely
// wants to fetch real OIDC metadata.
type EntraAuthConfig struct {
	Issuer   string
	Audience string
	// KeyFunc resolves the signing key for a token, typically backed by a
	// JWKS fetched from the provider's OpenID configuration.
	KeyFunc jwt.Keyfunc
	// Roles/Scopes: if Roles is non-empty the token must carry at least one
	// matching "roles" claim entry; else if Scopes is non-empty it must
	// carry at least one matching space-delimited "scp"/"scope" claim
	// entry (§4.8).
	Roles  []string
	Scopes []string
}

var errUnauthorized = errors.New("crudplugin: unauthorized")

// authorize validates the Authorization header against cfg, per §4.8's
// entra auth mode. Any mode other than AuthEntra always succeeds; AuthEntra
// with a nil cfg always fails.
func authorize(mode AuthMode, cfg *EntraAuthConfig, authorizationHeader string) error {
	if mode != AuthEntra {
		return nil
	}
	if cfg == nil {
		return errUnauthorized
	}
	tokenString, ok := bearerToken(authorizationHeader)
	if !ok {
		return errUnauthorized
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, cfg.KeyFunc,
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", errUnauthorized, err)
	}

	if len(cfg.Roles) > 0 {
		if !claimsIntersect(claims, "roles", cfg.Roles) {
			return errUnauthorized
		}
		return nil
	}
	if len(cfg.Scopes) > 0 {
		if !scopeClaimIntersects(claims, cfg.Scopes) {
			return errUnauthorized
		}
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// claimsIntersect reports whether claims[key] (a []any or []string claim)
// contains at least one value from want.
func claimsIntersect(claims jwt.MapClaims, key string, want []string) bool {
	raw, ok := claims[key]
	if !ok {
		return false
	}
	have := toStringSlice(raw)
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	for _, h := range have {
		if wantSet[h] {
			return true
		}
	}
	return false
}

// scopeClaimIntersects checks the conventional "scp" (v2) or "scope" (v1)
// claim, which is a single space-delimited string rather than an array.
func scopeClaimIntersects(claims jwt.MapClaims, want []string) bool {
	for _, key := range []string{"scp", "scope"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		have := strings.Fields(s)
		wantSet := make(map[string]bool, len(want))
		for _, w := range want {
			wantSet[w] = true
		}
		for _, h := range have {
			if wantSet[h] {
				return true
			}
		}
	}
	return false
}

func toStringSlice(raw any) []string {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}
