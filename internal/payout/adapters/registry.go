package adapters

import (
	"sort"
	"strings"

	payoutdomain "github.com/smallbiznis/gstengine/internal/payout/domain"
)

type Registry struct {
	providers map[string]payoutdomain.Provider
}

func NewRegistry(providers ...payoutdomain.Provider) *Registry {
	registry := &Registry{providers: map[string]payoutdomain.Provider{}}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := normalize(provider.Name())
		if name == "" {
			continue
		}
		registry.providers[name] = provider
	}
	return registry
}

func (r *Registry) Get(name string) (payoutdomain.Provider, error) {
	if r == nil {
		return nil, payoutdomain.ErrUnknownProvider
	}
	provider, ok := r.providers[normalize(name)]
	if !ok {
		return nil, payoutdomain.ErrUnknownProvider.WithField("provider").WithMessage("payout provider %q is not registered", name)
	}
	return provider, nil
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
