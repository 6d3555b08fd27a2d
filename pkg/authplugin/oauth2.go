package authplugin

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// OAuth2Config configures OAuth2 bearer-token mode (§4.10): the token is
// validated against fetched OIDC metadata (issuer/audience/signing key via
// KeyFunc), then optionally filtered on tenant, application, principal,
// role and scope claims. Every filter is optional; an empty filter always
// passes.
type OAuth2Config struct {
	Issuer   string
	Audience string
	KeyFunc  jwt.Keyfunc

	Tenants    []string // "tid" claim
	Apps       []string // "appid" (v1) or "azp" (v2) claim
	Principals []string // "oid" claim
	Roles      []string // "roles" claim
	Scopes     []string // "scp"/"scope" claim (space-delimited)
}

// validateOAuth2 parses and validates tokenString against cfg, applying
// every configured filter. All configured filters must pass (§4.10 "apply
// optional filters").
func validateOAuth2(cfg OAuth2Config, tokenString string) bool {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, cfg.KeyFunc, opts...)
	if err != nil || !parsed.Valid {
		return false
	}

	if len(cfg.Tenants) > 0 && !claimValueIn(claims, "tid", cfg.Tenants) {
		return false
	}
	if len(cfg.Apps) > 0 && !appClaimIn(claims, cfg.Apps) {
		return false
	}
	if len(cfg.Principals) > 0 && !claimValueIn(claims, "oid", cfg.Principals) {
		return false
	}
	if len(cfg.Roles) > 0 && !listClaimIntersects(claims, "roles", cfg.Roles) {
		return false
	}
	if len(cfg.Scopes) > 0 && !scopeClaimIntersects(claims, cfg.Scopes) {
		return false
	}
	return true
}

func claimValueIn(claims jwt.MapClaims, key string, allowed []string) bool {
	v, ok := claims[key].(string)
	if !ok {
		return false
	}
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// appClaimIn checks either the v1 "appid" claim or the v2 "azp" claim,
// whichever is present (§4.10 "application (appid v1 / azp v2)").
func appClaimIn(claims jwt.MapClaims, allowed []string) bool {
	for _, key := range []string{"appid", "azp"} {
		if claimValueIn(claims, key, allowed) {
			return true
		}
	}
	return false
}

func listClaimIntersects(claims jwt.MapClaims, key string, want []string) bool {
	raw, ok := claims[key]
	if !ok {
		return false
	}
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && wantSet[s] {
				return true
			}
		}
	case string:
		return wantSet[v]
	}
	return false
}

func scopeClaimIntersects(claims jwt.MapClaims, want []string) bool {
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	for _, key := range []string{"scp", "scope"} {
		raw, ok := claims[key].(string)
		if !ok {
			continue
		}
		for _, s := range strings.Fields(raw) {
			if wantSet[s] {
				return true
			}
		}
	}
	return false
}
