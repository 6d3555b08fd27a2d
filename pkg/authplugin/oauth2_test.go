package authplugin

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func testKeyFunc(token *jwt.Token) (any, error) {
	return testSigningKey, nil
}

func baseOAuth2Claims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss": "https://login.example.com/tenant",
		"aud": "api://my-app",
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
		"tid": "tenant-1",
		"oid": "user-1",
	}
}

func baseOAuth2Config() OAuth2Config {
	return OAuth2Config{
		Issuer:   "https://login.example.com/tenant",
		Audience: "api://my-app",
		KeyFunc:  testKeyFunc,
	}
}

func TestValidateOAuth2ValidToken(t *testing.T) {
	cfg := baseOAuth2Config()
	token := signToken(t, baseOAuth2Claims())
	assert.True(t, validateOAuth2(cfg, token))
}

func TestValidateOAuth2RejectsWrongIssuer(t *testing.T) {
	cfg := baseOAuth2Config()
	cfg.Issuer = "https://login.example.com/other-tenant"
	token := signToken(t, baseOAuth2Claims())
	assert.False(t, validateOAuth2(cfg, token))
}

func TestValidateOAuth2TenantFilter(t *testing.T) {
	cfg := baseOAuth2Config()
	cfg.Tenants = []string{"tenant-2"}
	token := signToken(t, baseOAuth2Claims())
	assert.False(t, validateOAuth2(cfg, token))

	cfg.Tenants = []string{"tenant-1"}
	assert.True(t, validateOAuth2(cfg, token))
}

func TestValidateOAuth2AppFilterAcceptsV1OrV2Claim(t *testing.T) {
	cfg := baseOAuth2Config()
	cfg.Apps = []string{"app-1"}

	claimsV1 := baseOAuth2Claims()
	claimsV1["appid"] = "app-1"
	assert.True(t, validateOAuth2(cfg, signToken(t, claimsV1)))

	claimsV2 := baseOAuth2Claims()
	claimsV2["azp"] = "app-1"
	assert.True(t, validateOAuth2(cfg, signToken(t, claimsV2)))

	claimsOther := baseOAuth2Claims()
	claimsOther["appid"] = "app-2"
	assert.False(t, validateOAuth2(cfg, signToken(t, claimsOther)))
}

func TestValidateOAuth2RoleFilter(t *testing.T) {
	cfg := baseOAuth2Config()
	cfg.Roles = []string{"Admin"}

	claims := baseOAuth2Claims()
	claims["roles"] = []any{"Reader"}
	assert.False(t, validateOAuth2(cfg, signToken(t, claims)))

	claims["roles"] = []any{"Admin", "Reader"}
	assert.True(t, validateOAuth2(cfg, signToken(t, claims)))
}

func TestValidateOAuth2ScopeFilter(t *testing.T) {
	cfg := baseOAuth2Config()
	cfg.Scopes = []string{"Files.Read"}

	claims := baseOAuth2Claims()
	claims["scp"] = "Files.Write Mail.Read"
	assert.False(t, validateOAuth2(cfg, signToken(t, claims)))

	claims["scp"] = "Files.Read Mail.Read"
	assert.True(t, validateOAuth2(cfg, signToken(t, claims)))
}

func TestValidateOAuth2RejectsMalformedToken(t *testing.T) {
	cfg := baseOAuth2Config()
	assert.False(t, validateOAuth2(cfg, "not-a-jwt"))
}
