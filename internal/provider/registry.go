package provider

import (
	"fmt"
	"sort"
	"strings"

	"supportflow/internal/ability"
	"supportflow/internal/config"
	"supportflow/internal/services"
)

// Registry holds one client per configured provider.
type Registry struct {
	clients map[string]ability.Client
}

// NewRegistry builds clients for every configured provider and verifies that
// each name in required is among them. A missing provider is a configuration
// error.
func NewRegistry(providers map[string]config.Provider, required []string, opts ...Option) (*Registry, error) {
	clients := make(map[string]ability.Client, len(providers))
	for name, p := range providers {
		clients[name] = NewClient(Config{
			Name:         name,
			BaseURL:      p.URL,
			Capabilities: p.Capabilities,
			Timeout:      p.Timeout(),
		}, opts...)
	}
	reg := &Registry{clients: clients}
	if err := reg.Require(required...); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewStaticRegistry wraps pre-built clients, keyed by their Name.
func NewStaticRegistry(clients ...ability.Client) *Registry {
	reg := &Registry{clients: make(map[string]ability.Client, len(clients))}
	for _, c := range clients {
		if c != nil {
			reg.clients[c.Name()] = c
		}
	}
	return reg
}

// Require reports a configuration error for the first unknown provider name.
func (r *Registry) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := r.clients[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return services.Wrap(services.ErrConfiguration, "", "resolve provider",
		fmt.Sprintf("unknown provider(s) %s; add a [providers.<name>] section", strings.Join(missing, ", ")), nil)
}

// Client returns the client for name.
func (r *Registry) Client(name string) (ability.Client, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.clients[name]
	return c, ok
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
