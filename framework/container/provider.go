package container

import (
	"fmt"
	"reflect"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider is the registration unit of one subsystem.
//
// Register only binds services; it must not resolve other bindings. Boot is
// called once after every provider has registered, so it may resolve and
// use anything.
//
//	type CleanupServiceProvider struct{ container.BaseProvider }
//
//	func (p *CleanupServiceProvider) Register(app *container.Container) error {
//	    p.Singleton("cleanup", newCleaner)
//	    return nil
//	}
type ServiceProvider interface {
	Register(app *Container) error

	Boot(app *Container) error

	// Provides lists the identifiers a deferred provider binds. It is only
	// consulted when IsDeferred returns true.
	Provides() []string

	// IsDeferred postpones Register and Boot until one of Provides is
	// first requested.
	IsDeferred() bool
}

// containerAware providers receive the container before Register runs.
type containerAware interface {
	SetContainer(app *Container)
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred, and shortcuts that forward to the container it was registered
// with.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct {
	app *Container
}

func (p *BaseProvider) SetContainer(app *Container) { p.app = app }

// App returns the container the provider was registered with.
func (p *BaseProvider) App() *Container { return p.app }

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

func (p *BaseProvider) Bind(id string, factory Factory)      { p.container().Bind(id, factory) }
func (p *BaseProvider) Singleton(id string, factory Factory) { p.container().Singleton(id, factory) }
func (p *BaseProvider) Instance(id string, instance any)     { p.container().Instance(id, instance) }
func (p *BaseProvider) Alias(alias, target string)           { p.container().Alias(alias, target) }

func (p *BaseProvider) Constructor(fn any, opts ...ParamOption) error {
	return p.container().Constructor(fn, opts...)
}

func (p *BaseProvider) container() *Container {
	if p.app == nil {
		panic("container: provider used before it was registered with a container")
	}
	return p.app
}

// ── Provider state ────────────────────────────────────────────────────────────

// ProviderState is the lifecycle position of a registered provider.
type ProviderState int

const (
	// ProviderPending is an eager provider whose Register has not succeeded.
	ProviderPending ProviderState = iota
	// ProviderIndexed is a deferred provider waiting for its first request.
	ProviderIndexed
	ProviderRegistered
	ProviderBooted
)

func (s ProviderState) String() string {
	switch s {
	case ProviderPending:
		return "pending"
	case ProviderIndexed:
		return "indexed"
	case ProviderRegistered:
		return "registered"
	case ProviderBooted:
		return "booted"
	}
	return fmt.Sprintf("ProviderState(%d)", int(s))
}

var providerTransitions = map[ProviderState]ProviderState{
	ProviderPending:    ProviderRegistered,
	ProviderIndexed:    ProviderRegistered,
	ProviderRegistered: ProviderBooted,
}

// CanTransition reports whether a provider in state s may move to next.
func (s ProviderState) CanTransition(next ProviderState) bool {
	to, ok := providerTransitions[s]
	return ok && to == next
}

type providerEntry struct {
	provider ServiceProvider
	name     string
	state    ProviderState
	provides []string
}

// advance must be called with the container lock held.
func (e *providerEntry) advance(next ProviderState) error {
	if !e.state.CanTransition(next) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, e.name, e.state, next)
	}
	e.state = next
	return nil
}

func providerName(p ServiceProvider) string {
	if named, ok := p.(interface{ Name() string }); ok {
		return named.Name()
	}
	return reflect.TypeOf(p).String()
}
