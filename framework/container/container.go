package container

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a value from the container. The *Container it receives is
// bound to the current resolution chain; resolve dependencies through it so
// cycles are detected.
type Factory func(c *Container) (any, error)

// binding holds a registered factory and whether it is a singleton.
type binding struct {
	factory   Factory
	singleton bool
}

// Extender decorates a resolved value.
type Extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Get / Has and the generic Resolve, Make helpers
//   - Auto-wiring of catalog constructors
//   - Service providers with register/boot phases and deferred loading
//   - Tags, Extend, contextual binding, rebound and resolved callbacks
//
// A *Container is a handle: every handle of one container shares the same
// registrations, while the handle passed to a factory also carries the
// resolution chain of the Get call that triggered it.
type Container struct {
	*core
	res *resolution
}

type core struct {
	mu sync.RWMutex

	root    *Container
	log     zerolog.Logger
	catalog *Catalog

	// id → binding
	bindings map[string]*binding

	// id → resolved singleton or registered instance
	instances map[string]any

	// alias → target (not flattened; walked on resolution)
	aliases map[string]string

	extenders map[string][]Extender

	// tag → []id
	tags map[string][]string

	// contextual: when[concrete][id] = factory
	contextual map[string]map[string]Factory

	reboundCallbacks map[string][]func(any)
	afterResolving   []func(string, any)

	providers []*providerEntry
	deferred  map[string]*providerEntry
	booting   bool
	booted    bool
}

// Option configures a container at construction.
type Option func(*core)

// WithLogger sets the logger used for provider lifecycle diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(co *core) { co.log = log.With().Str("component", "container").Logger() }
}

// WithCatalog shares a constructor catalog with the container.
func WithCatalog(cat *Catalog) Option {
	return func(co *core) { co.catalog = cat }
}

// New creates an empty container bound to itself under "container".
func New(opts ...Option) *Container {
	co := &core{log: zerolog.Nop()}
	co.reset()
	for _, opt := range opts {
		opt(co)
	}
	if co.catalog == nil {
		co.catalog = NewCatalog()
	}
	c := &Container{core: co}
	co.root = c
	c.Instance("container", c)
	return c
}

func (co *core) reset() {
	co.bindings = make(map[string]*binding)
	co.instances = make(map[string]any)
	co.aliases = make(map[string]string)
	co.extenders = make(map[string][]Extender)
	co.tags = make(map[string][]string)
	co.contextual = make(map[string]map[string]Factory)
	co.reboundCallbacks = make(map[string][]func(any))
	co.afterResolving = nil
	co.providers = nil
	co.deferred = make(map[string]*providerEntry)
	co.booting = false
	co.booted = false
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: every Get builds a new value.
//
//	c.Bind("report", func(c *container.Container) (any, error) {
//	    return &Report{}, nil
//	})
func (c *Container) Bind(id string, factory Factory) {
	c.bind(id, factory, false)
}

// Singleton registers a factory whose result is cached after the first
// successful resolution.
//
//	c.Singleton("db", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return database.Open(cfg.DB, zerolog.Nop())
//	})
func (c *Container) Singleton(id string, factory Factory) {
	c.bind(id, factory, true)
}

func (c *Container) bind(id string, factory Factory, singleton bool) {
	c.mu.Lock()
	_, wasResolved := c.instances[id]
	delete(c.instances, id)
	delete(c.aliases, id)
	c.bindings[id] = &binding{factory: factory, singleton: singleton}
	rebound := wasResolved && len(c.reboundCallbacks[id]) > 0
	c.mu.Unlock()

	if !rebound {
		return
	}
	instance, err := c.Get(id)
	if err != nil {
		c.log.Warn().Err(err).Str("id", id).Msg("rebound service failed to resolve")
		return
	}
	c.fireRebound(id, instance)
}

// Instance registers a pre-built value as an already-resolved singleton.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(id string, instance any) {
	c.mu.Lock()
	_, hadBinding := c.bindings[id]
	_, hadInstance := c.instances[id]
	delete(c.bindings, id)
	delete(c.aliases, id)
	c.instances[id] = instance
	c.mu.Unlock()

	if hadBinding || hadInstance {
		c.fireRebound(id, instance)
	}
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates every value built for id. An already cached value is
// decorated immediately.
//
//	c.Extend("log", func(instance any, c *container.Container) any {
//	    return instance.(zerolog.Logger).With().Str("app", "housekeeper").Logger()
//	})
func (c *Container) Extend(id string, fn Extender) {
	key, err := c.canonical(id)
	if err != nil {
		key = id
	}

	c.mu.Lock()
	c.extenders[key] = append(c.extenders[key], fn)
	instance, resolved := c.instances[key]
	c.mu.Unlock()

	if !resolved {
		return
	}
	extended := fn(instance, c)
	c.mu.Lock()
	c.instances[key] = extended
	c.mu.Unlock()
	c.fireRebound(key, extended)
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag groups several identifiers under a tag.
//
//	c.Tag([]string{"cleanup.revisions", "cleanup.trash"}, "cleanup.analyzers")
func (c *Container) Tag(ids []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], ids...)
}

// Tagged resolves every identifier registered under tag, in tagging order.
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	ids := slices.Clone(c.tags[tag])
	c.mu.RUnlock()

	result := make([]any, 0, len(ids))
	for _, id := range ids {
		instance, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id: aliases are followed, a deferred provider owning id is
// loaded, then the cached instance, the bound factory or a catalog
// constructor is used. It returns a *NotFoundError when nothing matches.
//
//	raw, err := c.Get("cleanup")
func (c *Container) Get(id string) (any, error) {
	if c.res.live() {
		return c.resolve(id)
	}
	chain := newChain()
	defer chain.state.done.Store(true)
	return c.within(chain).resolve(id)
}

// Make is Get for bootstrap code: it panics when id cannot be resolved.
func (c *Container) Make(id string) any {
	instance, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return instance
}

// resolve runs on a handle bound to a live resolution chain.
func (c *Container) resolve(id string) (any, error) {
	key, err := c.canonical(id)
	if err != nil {
		return nil, err
	}

	// an instance set explicitly wins over a provider that still owns id
	c.mu.RLock()
	_, preset := c.instances[key]
	c.mu.RUnlock()

	loaded := false
	if !preset {
		if loaded, err = c.loadDeferred(id, key); err != nil {
			return nil, err
		}
	}
	if loaded {
		// the provider may have registered new aliases for id
		if key, err = c.canonical(id); err != nil {
			return nil, err
		}
	}

	if factory := c.contextualFor(id, key); factory != nil {
		return c.build(OpResolve, key, factory, false)
	}

	c.mu.RLock()
	instance, cached := c.instances[key]
	b, bound := c.bindings[key]
	c.mu.RUnlock()

	switch {
	case cached:
		return instance, nil
	case bound:
		return c.build(OpResolve, key, b.factory, b.singleton)
	}

	if ctor, ok := c.catalog.lookup(key); ok {
		return c.build(OpAutowire, key, c.autowire(ctor), false)
	}
	return nil, &NotFoundError{ID: id}
}

// build runs factory for key on a handle whose chain ends with key.
func (c *Container) build(op Op, key string, factory Factory, singleton bool) (any, error) {
	link, err := c.res.push(key)
	if err != nil {
		return nil, err
	}

	var instance any
	err = guard(func() (err error) {
		instance, err = factory(c.within(link))
		return err
	})
	if err != nil {
		if IsCircular(err) {
			return nil, err
		}
		return nil, &ContainerError{Op: op, Subject: key, Cause: err}
	}

	instance = c.applyExtenders(key, instance)
	if singleton {
		instance = c.remember(key, instance)
	}
	c.fireAfterResolving(key, instance)
	return instance, nil
}

// remember caches a singleton; the first stored value wins.
func (c *Container) remember(key string, instance any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[key]; ok {
		return existing
	}
	c.instances[key] = instance
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether id can be named: it has a binding, an instance, a
// deferred provider, or a catalog constructor. Has does not prove that
// resolution would succeed.
func (c *Container) Has(id string) bool {
	key, err := c.canonical(id)
	if err != nil {
		return false
	}
	c.mu.RLock()
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	_, isDeferred := c.deferred[key]
	if !isDeferred {
		_, isDeferred = c.deferred[id]
	}
	c.mu.RUnlock()
	return hasBinding || hasInstance || isDeferred || c.catalog.Has(key)
}

// Bound reports whether id has a binding, an instance or an alias.
func (c *Container) Bound(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasBinding := c.bindings[id]
	_, hasInstance := c.instances[id]
	_, isAlias := c.aliases[id]
	return hasBinding || hasInstance || isAlias
}

// Resolved reports whether id has a cached instance.
func (c *Container) Resolved(id string) bool {
	key, err := c.canonical(id)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[key]
	return ok
}

// Forget removes the binding and cached instance of id.
func (c *Container) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, id)
	delete(c.instances, id)
}

// Flush resets the container: bindings, instances, aliases, tags,
// extenders, callbacks, providers and the deferred index. The constructor
// catalog is kept.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Bindings returns every bound or instantiated identifier, sorted.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers cb to run whenever a resolved id is re-bound or its
// instance replaced.
func (c *Container) Rebinding(id string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reboundCallbacks[id] = append(c.reboundCallbacks[id], cb)
}

// AfterResolving registers cb to run after every build.
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireRebound(id string, instance any) {
	c.mu.RLock()
	cbs := slices.Clone(c.reboundCallbacks[id])
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(id string, instance any) {
	c.mu.RLock()
	cbs := slices.Clone(c.afterResolving)
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(id, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, one pointer level
// stripped, for use as an identifier.
//
//	key := container.TypeKey((*cleanup.Cleaner)(nil)) // "github.com/km-arc/go-housekeeper/app/cleanup.Cleaner"
func TypeKey(v any) string {
	return TypeKeyOf(reflect.TypeOf(v))
}

// TypeKeyOf is TypeKey for a reflect.Type. It returns "" for unnamed types.
func TypeKeyOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t.Name() == "":
		return ""
	case t.PkgPath() == "":
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Key returns the identifier used for T by auto-wiring.
//
//	c.Singleton(container.Key[*gorm.DB](), openDB)
func Key[T any]() string {
	return TypeKeyOf(reflect.TypeFor[T]())
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve gets id and asserts it to T.
//
//	db, err := container.Resolve[*gorm.DB](c, "db")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	instance, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: %w: [%s] resolved to %T, want %s",
			ErrTypeMismatch, id, instance, reflect.TypeFor[T]())
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error.
func MustResolve[T any](c *Container, id string) T {
	typed, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return typed
}

// Make resolves T under its type key.
//
//	cleaner, err := container.Make[*cleanup.Cleaner](c)
func Make[T any](c *Container) (T, error) {
	return Resolve[T](c, Key[T]())
}
