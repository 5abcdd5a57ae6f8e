// Package container provides a Laravel-style IoC (Inversion of Control)
// container and Service Provider lifecycle for Go.
//
// # Overview
//
// The container wires subsystems together without hard-coding construction
// order. It supports transient bindings, singletons, pre-built instances,
// transitive aliases, auto-wiring of catalog constructors, tags, contextual
// bindings, extension (decoration) and deferred service providers.
//
// Go has no runtime lookup of types by name, so auto-wiring works from an
// explicit Catalog of constructor functions keyed by their result type.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: c.Register(&MyProvider{})
//  3. Boot: c.Boot()        (safe to resolve everything after this)
//  4. Serve requests
//
// # Bindings
//
//	// Transient: new value every Get
//	c.Bind("report", func(c *container.Container) (any, error) { return &Report{}, nil })
//
//	// Singleton: built once, reused
//	c.Singleton("db", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return database.Open(cfg.DB, zerolog.Nop())
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias (followed transitively; loops are reported by Get)
//	c.Alias("database", "db")
//
// # Resolving
//
//	raw, err := c.Get("db")
//	db, err := container.Resolve[*gorm.DB](c, "db")
//	cleaner, err := container.Make[*cleanup.Cleaner](c) // by type key
//
// Errors are typed: *NotFoundError for identifiers that name nothing,
// *ContainerError for provider or factory failures (Op says which),
// *CircularDependencyError and *CircularAliasError for cycles.
//
// # Auto-wiring
//
//	c.Constructor(cleanup.NewRevisionsAnalyzer)
//	c.Constructor(NewMailer, container.Default(1, 25), container.Nullable(2))
//
// Each named, non-primitive parameter is resolved through the container
// under its type key; if it is not found the declared default is used, then
// nil for nullable parameters, otherwise resolution fails.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    p.Singleton("mailer", newMailer)
//	    return nil
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    // safe to resolve other bindings here
//	    return nil
//	}
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    p.Singleton("heavy", heavySetup) // only registered on first Get("heavy")
//	    return nil
//	}
package container
