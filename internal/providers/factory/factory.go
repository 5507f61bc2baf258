// Package factory selects the document and presence providers of a
// deployment once, at startup, from configuration.
package factory

import (
	"fmt"
	"sort"

	docports "onboarding/internal/document/ports"
	"onboarding/internal/platform/config"
	"onboarding/internal/presence"
	presenceports "onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	"onboarding/internal/providers/mock"
)

type (
	DocumentConstructor func(cfg config.ProvidersConfig) (docports.Provider, error)
	PresenceConstructor func(cfg config.ProvidersConfig) (presenceports.Provider, error)
)

// Registry maps provider names to constructors.
type Registry struct {
	documents map[string]DocumentConstructor
	presence  map[string]PresenceConstructor
}

// NewRegistry returns a registry holding the built-in providers: "mock" for
// both capabilities and "disabled" for presence checks.
func NewRegistry() *Registry {
	r := &Registry{
		documents: make(map[string]DocumentConstructor),
		presence:  make(map[string]PresenceConstructor),
	}
	r.documents[mock.Name] = func(cfg config.ProvidersConfig) (docports.Provider, error) {
		return mock.NewDocumentProvider(cfg.MockPendingPoll), nil
	}
	r.presence[mock.Name] = func(cfg config.ProvidersConfig) (presenceports.Provider, error) {
		return mock.NewPresenceProvider(cfg.MockPendingPoll), nil
	}
	r.presence[presence.DisabledName] = func(config.ProvidersConfig) (presenceports.Provider, error) {
		return presence.Disabled{}, nil
	}
	return r
}

// RegisterDocument adds a document provider constructor.
func (r *Registry) RegisterDocument(name string, ctor DocumentConstructor) error {
	if _, exists := r.documents[name]; exists {
		return fmt.Errorf("document provider %s already registered", name)
	}
	r.documents[name] = ctor
	return nil
}

// RegisterPresence adds a presence provider constructor.
func (r *Registry) RegisterPresence(name string, ctor PresenceConstructor) error {
	if _, exists := r.presence[name]; exists {
		return fmt.Errorf("presence provider %s already registered", name)
	}
	r.presence[name] = ctor
	return nil
}

// DocumentNames lists the registered document providers.
func (r *Registry) DocumentNames() []string {
	return sortedKeys(r.documents)
}

// PresenceNames lists the registered presence providers.
func (r *Registry) PresenceNames() []string {
	return sortedKeys(r.presence)
}

// Set is the provider pair a deployment runs with.
type Set struct {
	Document docports.Provider
	Presence presenceports.Provider
}

// Build constructs the configured providers and wraps them with caller. The
// disabled presence provider is returned bare.
func (r *Registry) Build(cfg config.ProvidersConfig, caller *providers.Caller) (Set, error) {
	docCtor, ok := r.documents[cfg.Document]
	if !ok {
		return Set{}, fmt.Errorf("unknown document provider %q (known: %v)", cfg.Document, r.DocumentNames())
	}
	presenceCtor, ok := r.presence[cfg.PresenceCheck]
	if !ok {
		return Set{}, fmt.Errorf("unknown presence check provider %q (known: %v)", cfg.PresenceCheck, r.PresenceNames())
	}

	doc, err := docCtor(cfg)
	if err != nil {
		return Set{}, fmt.Errorf("build document provider %s: %w", cfg.Document, err)
	}
	pres, err := presenceCtor(cfg)
	if err != nil {
		return Set{}, fmt.Errorf("build presence check provider %s: %w", cfg.PresenceCheck, err)
	}

	set := Set{
		Document: &instrumentedDocument{next: doc, caller: caller},
		Presence: pres,
	}
	if pres.Name() != presence.DisabledName {
		set.Presence = &instrumentedPresence{next: pres, caller: caller}
	}
	return set, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
