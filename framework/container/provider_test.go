package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type configProvider struct {
	container.BaseProvider
	registerCalled bool
}

func (p *configProvider) Register(reg *container.Registry) {
	p.registerCalled = true
	container.BindShared(reg, AppConfig{Name: "demo"})
}

// counterProvider checks in Boot that what configProvider bound is usable.
type counterProvider struct {
	bootCalled bool
	seen       string
}

func (p *counterProvider) Register(reg *container.Registry) {
	container.BindRWLock(reg, Counter{})
}

func (p *counterProvider) Boot(res container.Resolver) error {
	p.bootCalled = true
	cfg, err := container.ResolveRef[AppConfig](res)
	if err != nil {
		return err
	}
	defer cfg.Release()
	p.seen = cfg.Value().Name
	return nil
}

type failingProvider struct {
	container.BaseProvider
}

func (p *failingProvider) Register(*container.Registry) {}

func (p *failingProvider) Boot(container.Resolver) error {
	return errors.New("warmup failed")
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestProviders_RegisterCalledImmediately(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())

	p := &configProvider{}
	providers.Register(p)

	assert.True(t, p.registerCalled)
	assert.True(t, container.Has[AppConfig](providers.Registry()))
}

func TestProviders_BootAfterAllRegistered(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())

	// Registration order does not matter for Boot: every binding exists by then.
	counter := &counterProvider{}
	providers.Register(counter)
	providers.Register(&configProvider{})
	assert.False(t, counter.bootCalled)

	require.NoError(t, providers.Boot())
	assert.True(t, counter.bootCalled)
	assert.Equal(t, "demo", counter.seen)
	assert.True(t, providers.Booted())
}

func TestProviders_BootFreezesRegistry(t *testing.T) {
	reg := container.New()
	providers := container.NewProviderRegistry(reg)
	providers.Register(&configProvider{})
	require.NoError(t, providers.Boot())

	assert.True(t, reg.Frozen())
	assert.Panics(t, func() { container.BindShared(reg, Counter{}) })
}

func TestProviders_BootIsIdempotent(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())
	providers.Register(&configProvider{})

	require.NoError(t, providers.Boot())
	require.NoError(t, providers.Boot())
	assert.True(t, providers.Booted())
}

func TestProviders_BootedFalseBeforeBoot(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())
	assert.False(t, providers.Booted())
}

func TestProviders_DuplicateRegisterIgnored(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())

	p := &configProvider{}
	providers.Register(p)
	providers.Register(p)

	assert.Len(t, providers.Providers(), 1)
}

func TestProviders_BootErrorStopsAndIsWrapped(t *testing.T) {
	reg := container.New()
	providers := container.NewProviderRegistry(reg)
	providers.Register(&failingProvider{})
	counter := &counterProvider{}
	providers.Register(counter)

	err := providers.Boot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container: boot *container_test.failingProvider: warmup failed")
	assert.False(t, counter.bootCalled)
	assert.False(t, providers.Booted())
	assert.False(t, reg.Frozen())
}

func TestProviders_RegisterAfterBootPanics(t *testing.T) {
	providers := container.NewProviderRegistry(container.New())
	require.NoError(t, providers.Boot())

	assert.Panics(t, func() { providers.Register(&configProvider{}) })
}

func TestBaseProvider_Boot(t *testing.T) {
	var p container.BaseProvider
	assert.NoError(t, p.Boot(container.New()))
}
