package container

import (
	"reflect"
	"slices"
)

// Register adds a provider.
//
// A deferred provider only has its Provides identifiers indexed; its
// Register and Boot run on the first Get of one of them. An eager provider
// is registered now, and booted now too when the container has already
// booted. Registering the same provider twice is a no-op. An eager
// provider whose Register fails is not kept, so it can be registered again.
//
//	if err := app.Register(&providers.DatabaseServiceProvider{}); err != nil {
//	    return err
//	}
func (c *Container) Register(p ServiceProvider) error {
	if aware, ok := p.(containerAware); ok {
		aware.SetContainer(c.root)
	}
	deferred := p.IsDeferred()
	var provides []string
	if deferred {
		provides = slices.Clone(p.Provides())
	}

	c.mu.Lock()
	if c.isRegistered(p) {
		c.mu.Unlock()
		return nil
	}
	e := &providerEntry{provider: p, name: providerName(p), provides: provides}
	c.providers = append(c.providers, e)

	if deferred {
		e.state = ProviderIndexed
		for _, id := range provides {
			c.deferred[id] = e
		}
		c.mu.Unlock()
		c.log.Debug().Str("provider", e.name).Strs("provides", provides).Msg("deferred provider indexed")
		return nil
	}
	booted := c.booted
	c.mu.Unlock()

	if err := c.registerEntry(e); err != nil {
		// forget the provider so a corrected retry is not a silent no-op
		c.mu.Lock()
		c.providers = slices.DeleteFunc(c.providers, func(x *providerEntry) bool { return x == e })
		c.mu.Unlock()
		return err
	}
	if booted {
		return c.bootEntry(e)
	}
	return nil
}

// isRegistered must be called with the lock held.
func (c *Container) isRegistered(p ServiceProvider) bool {
	if !reflect.TypeOf(p).Comparable() {
		return false
	}
	for _, e := range c.providers {
		if e.provider == p {
			return true
		}
	}
	return false
}

// Boot boots every registered provider once, in registration order. It is
// idempotent, and a call made while booting is already under way returns
// nil. Deferred providers loaded during the boot loop are booted as soon as
// they register.
func (c *Container) Boot() error {
	c.mu.Lock()
	if c.booted || c.booting {
		c.mu.Unlock()
		return nil
	}
	c.booting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.booting = false
		c.mu.Unlock()
	}()

	for i := 0; ; i++ {
		c.mu.RLock()
		if i >= len(c.providers) {
			c.mu.RUnlock()
			break
		}
		e := c.providers[i]
		c.mu.RUnlock()

		if err := c.bootEntry(e); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.booted = true
	c.mu.Unlock()
	c.log.Debug().Int("providers", c.providerCount()).Msg("container booted")
	return nil
}

// Booted reports whether Boot has completed.
func (c *Container) Booted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.booted
}

// Providers returns every registered provider, deferred ones included, in
// registration order.
func (c *Container) Providers() []ServiceProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ServiceProvider, len(c.providers))
	for i, e := range c.providers {
		out[i] = e.provider
	}
	return out
}

// ProviderStateOf returns the lifecycle state of a registered provider.
func (c *Container) ProviderStateOf(p ServiceProvider) (ProviderState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !reflect.TypeOf(p).Comparable() {
		return ProviderPending, false
	}
	for _, e := range c.providers {
		if e.provider == p {
			return e.state, true
		}
	}
	return ProviderPending, false
}

func (c *Container) providerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.providers)
}

// loadDeferred activates the deferred provider owning id or key, if any.
func (c *Container) loadDeferred(id, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.deferred[key]
	if !ok {
		e, ok = c.deferred[id]
	}
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, c.activate(e)
}

// activate registers a deferred provider, and boots it when the container
// is booted or booting. Its index entries are removed before any provider
// code runs, so a failed Register is never retried through the same
// identifier and a re-entrant Get cannot activate it twice.
func (c *Container) activate(e *providerEntry) error {
	provides := slices.Clone(e.provider.Provides())

	c.mu.Lock()
	for _, id := range slices.Concat(e.provides, provides) {
		if c.deferred[id] == e {
			delete(c.deferred, id)
		}
	}
	if e.state != ProviderIndexed {
		c.mu.Unlock()
		return nil
	}
	bootNow := c.booted || c.booting
	c.mu.Unlock()

	c.log.Debug().Str("provider", e.name).Msg("loading deferred provider")
	if err := c.registerEntry(e); err != nil {
		return err
	}
	if bootNow {
		return c.bootEntry(e)
	}
	return nil
}

func (c *Container) registerEntry(e *providerEntry) error {
	app := c.root
	if err := guard(func() error { return e.provider.Register(app) }); err != nil {
		c.log.Error().Err(err).Str("provider", e.name).Msg("provider registration failed")
		return &ContainerError{Op: OpRegister, Subject: e.name, Cause: err}
	}

	c.mu.Lock()
	err := e.advance(ProviderRegistered)
	c.mu.Unlock()
	if err != nil {
		return &ContainerError{Op: OpRegister, Subject: e.name, Cause: err}
	}
	c.log.Debug().Str("provider", e.name).Msg("provider registered")
	return nil
}

// bootEntry boots e if it is registered and not yet booted.
func (c *Container) bootEntry(e *providerEntry) error {
	c.mu.RLock()
	ready := e.state == ProviderRegistered
	c.mu.RUnlock()
	if !ready {
		return nil
	}

	app := c.root
	if err := guard(func() error { return e.provider.Boot(app) }); err != nil {
		c.log.Error().Err(err).Str("provider", e.name).Msg("provider boot failed")
		return &ContainerError{Op: OpBoot, Subject: e.name, Cause: err}
	}

	c.mu.Lock()
	err := e.advance(ProviderBooted)
	c.mu.Unlock()
	if err != nil {
		return &ContainerError{Op: OpBoot, Subject: e.name, Cause: err}
	}
	c.log.Debug().Str("provider", e.name).Msg("provider booted")
	return nil
}
