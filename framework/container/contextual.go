package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When(container.Key[*controllers.CleanupController]()).
//	    Needs(container.Key[cleanup.Policy]()).
//	    GiveValue(cleanup.Policy{RetentionDays: 7})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// When starts a contextual binding for values built while concrete is
// being resolved.
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// Needs names the identifier the concrete depends on.
func (b *ContextualBuilder) Needs(id string) *ContextualBuilder {
	b.needs = id
	return b
}

// Give sets the factory used for the dependency. The result is never
// cached.
func (b *ContextualBuilder) Give(factory Factory) {
	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contextual[b.concrete]; !ok {
		c.contextual[b.concrete] = make(map[string]Factory)
	}
	c.contextual[b.concrete][b.needs] = factory
}

// GiveValue is Give for a fixed value.
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(_ *Container) (any, error) { return value, nil })
}

// contextualFor returns the contextual factory for the identifier being
// requested by the top of the resolution chain, or nil.
func (c *Container) contextualFor(id, key string) Factory {
	concrete := c.res.top()
	if concrete == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	needs := c.contextual[concrete]
	if f, ok := needs[id]; ok {
		return f
	}
	return needs[key]
}
