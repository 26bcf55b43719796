// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import "fmt"

// Registry dispatches a provider name to its [SourceClient] implementation.
type Registry struct {
	clients map[string]SourceClient
}

// NewRegistry builds a [Registry] from a set of constructed clients, keyed by
// their own Provider().
func NewRegistry(clients ...SourceClient) *Registry {
	r := &Registry{clients: make(map[string]SourceClient, len(clients))}
	for _, client := range clients {
		r.clients[client.Provider()] = client
	}
	return r
}

// Get returns the client registered for provider, or an error if no client
// was registered under that name.
func (r *Registry) Get(provider string) (SourceClient, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("source: unknown provider %q", provider)
	}
	return client, nil
}

// Providers returns the set of registered provider names.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
