package devproxyconfig

import "github.com/devproxy-io/devproxy/pkg/authplugin"

// fakeKeySourceFactory returns a newKeySource callback that records the
// issuer it was asked to resolve and returns a KeySource that is never
// actually refreshed over the network during these tests.
func fakeKeySourceFactory(gotIssuer *string) func(issuer string) (*authplugin.KeySource, error) {
	return func(issuer string) (*authplugin.KeySource, error) {
		*gotIssuer = issuer
		return authplugin.NewKeySource(issuer+"/.well-known/jwks.json", nil), nil
	}
}
