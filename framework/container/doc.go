// Package container provides a typed service registry and the Service
// Provider system built on top of it.
//
// # Overview
//
// Services are keyed by their Go type. Each type is bound at most once, and
// the way it was bound decides how it may be resolved:
//
//	kind     immutable ref   mutable ref   owned value
//	shared   yes             no            no
//	rwlock   yes (shared)    yes           no
//	mutex    yes (exclusive) yes           no
//	factory  yes (fresh)     yes (fresh)   yes
//
// Every refusal is a *ResolveError whose Kind says why. Compare with
// errors.Is against ErrNonExist, ErrPoisoned, ErrMutImmutable,
// ErrOwnedMutable and ErrOwnedImmutable.
//
// # Lifecycle
//
//  1. Create: reg := container.New(container.WithLogger(logger))
//  2. Register providers: providers.Register(&MyProvider{})
//  3. Boot: providers.Boot(); the registry is frozen afterwards
//  4. Resolve from any goroutine
//
// # Bindings
//
//	container.BindShared(reg, cfg)                  // read-only, no locking
//	container.BindRWLock(reg, AppState{})           // many readers or one writer
//	container.BindMutex(reg, Counter{})             // one holder at a time
//	container.BindFactory(reg, func(res container.Resolver) (S3Client, error) {
//	    cfg, err := container.ResolveRef[S3Config](res)
//	    if err != nil {
//	        return S3Client{}, err
//	    }
//	    defer cfg.Release()
//	    return S3Client{Bucket: cfg.Value().Bucket}, nil
//	})
//
// # Resolving
//
//	state, err := container.ResolveMut[AppState](reg)
//	if err != nil {
//	    return err
//	}
//	defer state.Release()
//	state.Ptr().Subject = "penguins"
//
// Guards must be released on a deferred call. A panic while a write guard
// (or any mutex guard) is held poisons the lock, and later resolutions fail
// with ErrPoisoned until ClearPoison is called on the handle.
//
// # Injection
//
//	var greet = container.Inject2(container.Ref[AppConfig](), container.Mut[AppState](),
//	    func(cfg AppConfig, state *AppState) string {
//	        return cfg.Name + " " + state.Subject
//	    })
//
//	out, err := greet(reg)
//
// Dependencies are resolved in declaration order. The first failure stops
// the call and releases what was already acquired.
//
// # Overlays
//
// An Overlay layers values on top of another Resolver for a single request.
// Overlay values are read-only.
//
//	res := container.Provide(container.NewOverlay(reg), &requestID)
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(reg *container.Registry) {
//	    container.BindRWLock(reg, AppState{})
//	}
//
//	providers := container.NewProviderRegistry(reg)
//	providers.Register(&AppServiceProvider{})
//	if err := providers.Boot(); err != nil {
//	    return err
//	}
package container
