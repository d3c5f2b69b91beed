// Package federation defines the contract for external identity providers.
// Providers return identity facts only; the domain gate, user creation and
// session issuance all live in the application layer.
package federation

import (
	"context"
	"fmt"
)

// Identity is the normalized result of an external sign-in.
type Identity struct {
	Provider       string // e.g. "google"
	ProviderUserID string // provider-scoped subject
	Email          string
	Name           string
	AvatarURL      string
}

// Provider is an OAuth/OIDC identity provider.
type Provider interface {
	Name() string

	// AuthCodeURL returns the authorization URL; state and PKCE challenge
	// are supplied by the HTTP layer.
	AuthCodeURL(state, codeChallenge string) string

	// Exchange swaps the authorization code for a verified Identity.
	Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error)
}

// Registry holds configured providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown identity provider: %s", name)
	}
	return p, nil
}
