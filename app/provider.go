package app

import (
	"errors"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/routing"
)

// ServiceProvider binds the demo services and routes.
//
// Bound types:
//   - AppState (RWLock, seeded from STATE_GREETING / STATE_SUBJECT)
//   - S3Client (factory, from S3_BUCKET / S3_REGION)
//   - RequestInfo (factory, from the router's per-request values)
type ServiceProvider struct {
	state *container.RWLock[AppState]
}

// NewServiceProvider creates the demo provider.
func NewServiceProvider() *ServiceProvider {
	return &ServiceProvider{state: container.NewRWLock(AppState{})}
}

// State returns the lock handle behind AppState.
func (p *ServiceProvider) State() *container.RWLock[AppState] { return p.state }

func (p *ServiceProvider) Register(reg *container.Registry) {
	if p.state == nil {
		p.state = container.NewRWLock(AppState{})
	}
	container.BindRWLockHandle(reg, p.state)
	container.BindFactory(reg, NewS3Client)
	container.BindFactory(reg, NewRequestInfo)
}

func (p *ServiceProvider) Boot(res container.Resolver) error {
	if _, err := resetState(res); err != nil {
		return err
	}

	app, err := container.ResolveRef[config.AppConfig](res)
	if err != nil {
		return err
	}
	debug := app.Value().Debug
	app.Release()

	router, err := container.ResolveRef[*routing.Router](res)
	if err != nil {
		return err
	}
	defer router.Release()
	p.routes(router.Value(), debug)
	return nil
}

func (p *ServiceProvider) routes(r *routing.Router, debug bool) {
	r.Get("/", Home)
	r.Prefix("/state", func(r *routing.Router) {
		r.Get("/", ReadState)
		r.Delete("/", p.RecoverState)
		r.Post("/write", WriteState)
		r.Get("/echo", EchoState)
		r.Get("/field/{name}", StateField)
		if debug {
			r.Post("/panic", PanicState)
		}
	})
	r.Get("/s3", ListObjects)
}

// RecoverState reseeds the state from configuration, clearing the poison a
// panicking writer left behind.
//
//	DELETE /state
func (p *ServiceProvider) RecoverState(res container.Resolver) (any, error) {
	p.state.ClearPoison()
	return resetState(res)
}

// NewS3Client builds a client from the S3 configuration section.
func NewS3Client(res container.Resolver) (S3Client, error) {
	cfg, err := container.ResolveRef[config.S3Config](res)
	if err != nil {
		return S3Client{}, err
	}
	defer cfg.Release()

	if cfg.Value().Bucket == "" {
		return S3Client{}, errors.New("app: S3_BUCKET is empty")
	}
	return S3Client{Bucket: cfg.Value().Bucket, Region: cfg.Value().Region}, nil
}

// NewRequestInfo builds a RequestInfo from the request being served. It only
// resolves through the router's per-request resolver.
func NewRequestInfo(res container.Resolver) (RequestInfo, error) {
	req, err := container.ResolveRef[gohttp.Request](res)
	if err != nil {
		return RequestInfo{}, err
	}
	defer req.Release()
	id, err := container.ResolveRef[routing.RequestID](res)
	if err != nil {
		return RequestInfo{}, err
	}
	defer id.Release()

	return RequestInfo{
		ID:     string(id.Value()),
		Method: req.Value().Method(),
		Path:   req.Value().Path(),
	}, nil
}
