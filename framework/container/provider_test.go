package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-housekeeper/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalls++
	app.Singleton("eager-svc", value("eager"))
	return nil
}

func (p *eagerProvider) Boot(*container.Container) error {
	p.bootCalls++
	return nil
}

// deferredProvider is lazy: only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalls++
	app.Singleton("deferred-svc", value("deferred-value"))
	app.Singleton("deferred-other", value("other-value"))
	return nil
}

func (p *deferredProvider) Boot(*container.Container) error {
	p.bootCalls++
	return nil
}

func (p *deferredProvider) IsDeferred() bool { return true }
func (p *deferredProvider) Provides() []string {
	return []string{"deferred-svc", "deferred-other"}
}

// recordingProvider appends its lifecycle calls to a shared log.
type recordingProvider struct {
	container.BaseProvider
	name     string
	events   *[]string
	deferred bool
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Register(app *container.Container) error {
	*p.events = append(*p.events, p.name+".register")
	app.Instance(p.name, p.name)
	return nil
}

func (p *recordingProvider) Boot(*container.Container) error {
	*p.events = append(*p.events, p.name+".boot")
	return nil
}

func (p *recordingProvider) IsDeferred() bool   { return p.deferred }
func (p *recordingProvider) Provides() []string { return []string{p.name} }

// consumerProvider resolves a deferred service from Boot.
type consumerProvider struct {
	container.BaseProvider
	got any
}

func (p *consumerProvider) Register(*container.Container) error { return nil }

func (p *consumerProvider) Boot(app *container.Container) error {
	v, err := app.Get("deferred-svc")
	p.got = v
	return err
}

type failingProvider struct {
	container.BaseProvider
	registerErr error
	bootErr     error
	deferred    bool
	calls       int
}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) Register(*container.Container) error {
	p.calls++
	return p.registerErr
}

func (p *failingProvider) Boot(*container.Container) error { return p.bootErr }
func (p *failingProvider) IsDeferred() bool                { return p.deferred }
func (p *failingProvider) Provides() []string              { return []string{"fragile"} }

type panickingProvider struct{ container.BaseProvider }

func (p *panickingProvider) Register(*container.Container) error { panic("provider exploded") }

// shrinkingProvider reports fewer identifiers once it has been indexed.
type shrinkingProvider struct {
	container.BaseProvider
	asked         int
	registerCalls int
}

func (p *shrinkingProvider) Register(app *container.Container) error {
	p.registerCalls++
	app.Instance("x", "x")
	app.Instance("y", "y")
	return nil
}

func (p *shrinkingProvider) IsDeferred() bool { return true }
func (p *shrinkingProvider) Provides() []string {
	p.asked++
	if p.asked == 1 {
		return []string{"x", "y"}
	}
	return []string{"x"}
}

// ── Eager providers ───────────────────────────────────────────────────────────

func TestRegister_EagerProviderRegistersImmediately(t *testing.T) {
	c := container.New()
	p := &eagerProvider{}
	require.NoError(t, c.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 0, p.bootCalls, "Boot must wait for container.Boot")

	got, err := c.Get("eager-svc")
	require.NoError(t, err)
	assert.Equal(t, "eager", got)
}

func TestBoot_CallsEachProviderOnce(t *testing.T) {
	c := container.New()
	p := &eagerProvider{}
	require.NoError(t, c.Register(p))

	assert.False(t, c.Booted())
	require.NoError(t, c.Boot())
	require.NoError(t, c.Boot())

	assert.True(t, c.Booted())
	assert.Equal(t, 1, p.bootCalls)
}

func TestRegister_DuplicateIsIgnored(t *testing.T) {
	c := container.New()
	p := &eagerProvider{}
	require.NoError(t, c.Register(p))
	require.NoError(t, c.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Len(t, c.Providers(), 1)
}

func TestRegister_AfterBootRegistersThenBoots(t *testing.T) {
	c := container.New()
	var events []string
	require.NoError(t, c.Boot())

	require.NoError(t, c.Register(&recordingProvider{name: "late", events: &events}))
	assert.Equal(t, []string{"late.register", "late.boot"}, events)
}

func TestBoot_RunsInRegistrationOrder(t *testing.T) {
	c := container.New()
	var events []string
	require.NoError(t, c.Register(&recordingProvider{name: "a", events: &events}))
	require.NoError(t, c.Register(&recordingProvider{name: "b", events: &events}))
	require.NoError(t, c.Boot())

	assert.Equal(t, []string{"a.register", "b.register", "a.boot", "b.boot"}, events)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestDeferred_IndexedButNotRegistered(t *testing.T) {
	c := container.New()
	p := &deferredProvider{}
	require.NoError(t, c.Register(p))

	assert.Equal(t, 0, p.registerCalls)
	assert.True(t, c.Has("deferred-svc"))
	assert.True(t, c.Has("deferred-other"))

	state, ok := c.ProviderStateOf(p)
	require.True(t, ok)
	assert.Equal(t, container.ProviderIndexed, state)
}

func TestDeferred_FirstGetAfterBootRegistersAndBootsOnce(t *testing.T) {
	c := container.New()
	p := &deferredProvider{}
	require.NoError(t, c.Register(p))
	require.NoError(t, c.Boot())
	assert.Equal(t, 0, p.registerCalls, "Boot must not touch deferred providers")

	got, err := c.Get("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)
	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 1, p.bootCalls)

	other, err := c.Get("deferred-other")
	require.NoError(t, err)
	assert.Equal(t, "other-value", other)
	assert.Equal(t, 1, p.registerCalls, "a second provided id must not re-trigger")
	assert.Equal(t, 1, p.bootCalls)

	state, _ := c.ProviderStateOf(p)
	assert.Equal(t, container.ProviderBooted, state)
}

func TestDeferred_LoadedBeforeBootIsBootedByBoot(t *testing.T) {
	c := container.New()
	p := &deferredProvider{}
	require.NoError(t, c.Register(p))

	_, err := c.Get("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 0, p.bootCalls)

	require.NoError(t, c.Boot())
	assert.Equal(t, 1, p.bootCalls)
}

func TestDeferred_RequestedDuringBootIsBootedImmediately(t *testing.T) {
	c := container.New()
	consumer := &consumerProvider{}
	p := &deferredProvider{}
	require.NoError(t, c.Register(consumer))
	require.NoError(t, c.Register(p))

	require.NoError(t, c.Boot())
	assert.Equal(t, "deferred-value", consumer.got)
	assert.Equal(t, 1, p.registerCalls)
	assert.Equal(t, 1, p.bootCalls)
}

func TestDeferred_RegisteredAfterBootActivatesOnFirstGet(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Boot())

	var events []string
	p := &recordingProvider{name: "late", events: &events, deferred: true}
	require.NoError(t, c.Register(p))
	assert.Empty(t, events)

	got, err := c.Get("late")
	require.NoError(t, err)
	assert.Equal(t, "late", got)
	assert.Equal(t, []string{"late.register", "late.boot"}, events)

	state, _ := c.ProviderStateOf(p)
	assert.Equal(t, container.ProviderBooted, state)
}

func TestDeferred_ExplicitInstanceWinsOverProvider(t *testing.T) {
	c := container.New()
	var events []string
	require.NoError(t, c.Register(&recordingProvider{name: "svc", events: &events, deferred: true}))

	c.Instance("svc", "fake")

	got, err := c.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, "fake", got)
	assert.Empty(t, events, "the provider is not loaded over the replacement")
}

func TestDeferred_AliasToDeferredIdentifier(t *testing.T) {
	c := container.New()
	p := &deferredProvider{}
	require.NoError(t, c.Register(p))
	c.Alias("svc", "deferred-svc")

	assert.True(t, c.Has("svc"))
	got, err := c.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)
}

func TestDeferred_FailedRegisterIsNotRetried(t *testing.T) {
	c := container.New()
	boom := errors.New("no database")
	p := &failingProvider{registerErr: boom, deferred: true}
	require.NoError(t, c.Register(p))

	_, err := c.Get("fragile")
	var ce *container.ContainerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, container.OpRegister, ce.Op)
	assert.Equal(t, "failing", ce.Subject)
	assert.ErrorIs(t, err, boom)

	_, err = c.Get("fragile")
	assert.True(t, container.IsNotFound(err))
	assert.Equal(t, 1, p.calls)
}

func TestDeferred_IndexEntriesRemovedForEverySnapshot(t *testing.T) {
	c := container.New()
	p := &shrinkingProvider{}
	require.NoError(t, c.Register(p))

	_, err := c.Get("x")
	require.NoError(t, err)
	got, err := c.Get("y")
	require.NoError(t, err)
	assert.Equal(t, "y", got)
	assert.Equal(t, 1, p.registerCalls)
}

// Scenario: a deferred provider is indexed, then activated by its first request.
func TestDeferred_IndexThenActivate(t *testing.T) {
	c := container.New()
	var events []string
	p := &recordingProvider{name: "svc", events: &events, deferred: true}

	require.NoError(t, c.Register(p))
	assert.True(t, c.Has("svc"))
	assert.Empty(t, events)

	got, err := c.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, "svc", got)
	assert.Equal(t, []string{"svc.register"}, events)
}

// ── Failures ──────────────────────────────────────────────────────────────────

func TestRegister_ErrorIsWrapped(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")

	err := c.Register(&failingProvider{registerErr: boom})

	var ce *container.ContainerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, container.OpRegister, ce.Op)
	assert.ErrorIs(t, err, boom)
}

func TestRegister_FailedEagerProviderCanBeRetried(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	p := &failingProvider{registerErr: boom}

	require.ErrorIs(t, c.Register(p), boom)
	assert.Empty(t, c.Providers())
	_, ok := c.ProviderStateOf(p)
	assert.False(t, ok)

	p.registerErr = nil
	require.NoError(t, c.Register(p))
	assert.Equal(t, 2, p.calls)
	state, ok := c.ProviderStateOf(p)
	require.True(t, ok)
	assert.Equal(t, container.ProviderRegistered, state)
}

func TestBoot_ErrorLeavesContainerUnbooted(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	p := &failingProvider{bootErr: boom}
	require.NoError(t, c.Register(p))

	err := c.Boot()
	var ce *container.ContainerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, container.OpBoot, ce.Op)
	assert.False(t, c.Booted())

	p.bootErr = nil
	require.NoError(t, c.Boot(), "boot can be retried")
	assert.True(t, c.Booted())
}

func TestRegister_PanicIsRecovered(t *testing.T) {
	c := container.New()
	err := c.Register(&panickingProvider{})

	var pe *container.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "provider exploded", pe.Value)
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

type shortcutProvider struct{ container.BaseProvider }

func (p *shortcutProvider) Register(*container.Container) error {
	p.Singleton("single", newThing)
	p.Bind("transient", newThing)
	p.Instance("inst", 1)
	p.Alias("one", "inst")
	return p.Constructor(NewClock)
}

func TestBaseProvider_ShortcutsForwardToContainer(t *testing.T) {
	c := container.New()
	p := &shortcutProvider{}
	require.NoError(t, c.Register(p))

	assert.Same(t, c, p.App())
	for _, id := range []string{"single", "transient", "inst", "one", container.Key[*Clock]()} {
		assert.True(t, c.Has(id), id)
	}
}

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	assert.NoError(t, p.Boot(nil))
	assert.Nil(t, p.Provides())
	assert.False(t, p.IsDeferred())
	assert.Panics(t, func() { p.Bind("x", newThing) }, "unregistered provider has no container")
}

// ── State ─────────────────────────────────────────────────────────────────────

func TestProviderState_Transitions(t *testing.T) {
	tests := []struct {
		from, to container.ProviderState
		ok       bool
	}{
		{container.ProviderPending, container.ProviderRegistered, true},
		{container.ProviderIndexed, container.ProviderRegistered, true},
		{container.ProviderRegistered, container.ProviderBooted, true},
		{container.ProviderPending, container.ProviderBooted, false},
		{container.ProviderIndexed, container.ProviderBooted, false},
		{container.ProviderBooted, container.ProviderRegistered, false},
		{container.ProviderBooted, container.ProviderBooted, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestProviderStateOf_TracksLifecycle(t *testing.T) {
	c := container.New()
	p := &eagerProvider{}

	_, ok := c.ProviderStateOf(p)
	assert.False(t, ok)

	require.NoError(t, c.Register(p))
	state, _ := c.ProviderStateOf(p)
	assert.Equal(t, container.ProviderRegistered, state)

	require.NoError(t, c.Boot())
	state, _ = c.ProviderStateOf(p)
	assert.Equal(t, container.ProviderBooted, state)
	assert.Equal(t, "booted", state.String())
}
