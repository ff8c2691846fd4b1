package app

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/http/validation"
	"github.com/km-arc/go-ioc/framework/routing"
)

// Home greets with the application name.
var Home = container.Inject1(container.Ref[config.AppConfig](), func(cfg config.AppConfig) any {
	return map[string]any{"message": "Welcome to " + cfg.Name}
})

// ReadState reports the current greeting. Many readers run at once.
var ReadState = container.Inject2(container.Ref[config.AppConfig](), container.Ref[AppState](),
	func(_ config.AppConfig, state AppState) any {
		return stateView(state)
	})

type writeBody struct {
	Subject string `json:"subject"`
}

var subjectRules = validation.Rules{"subject": "required|max:64"}

// WriteState sets the subject to the one in the JSON body, or "penguins"
// when the body is empty.
var WriteState = container.Inject3(container.Ref[gohttp.Request](), container.Ref[config.AppConfig](), container.Mut[AppState](),
	func(req gohttp.Request, _ config.AppConfig, state *AppState) any {
		body := writeBody{Subject: "penguins"}
		if err := req.Bind(&body); err != nil && !errors.Is(err, gohttp.ErrEmptyBody) {
			return routing.Abort(http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		if err := validation.Validate(map[string]string{"subject": body.Subject}, subjectRules); err != nil {
			return err
		}
		state.Subject = body.Subject
		return stateView(*state)
	})

// EchoState reports the request it was called for and sets the subject to
// "penguins".
var EchoState = container.Inject2(container.Owned[RequestInfo](), container.Mut[AppState](),
	func(info RequestInfo, state *AppState) any {
		state.Subject = "penguins"
		return map[string]any{
			"method":     info.Method,
			"path":       info.Path,
			"request_id": info.ID,
			"state":      stateView(*state),
		}
	})

// StateField reports one field of the state view.
//
//	GET /state/field/subject
var StateField = container.Inject2(container.Ref[gohttp.Request](), container.Ref[AppState](),
	func(req gohttp.Request, state AppState) any {
		name := req.RouteParam("name")
		v, ok := stateView(state)[name]
		if !ok {
			return routing.Abort(http.StatusNotFound, "unknown state field "+name)
		}
		return map[string]any{name: v}
	})

// ListObjects lists the bucket through a client built for this request.
//
//	GET /s3?prefix=greetings/
var ListObjects = container.Inject3(container.Ref[gohttp.Request](), container.Ref[config.AppConfig](), container.Owned[S3Client](),
	func(req gohttp.Request, _ config.AppConfig, client S3Client) any {
		return map[string]any{
			"bucket":  client.Bucket,
			"region":  client.Region,
			"objects": client.ListObjects(req.Query("prefix")),
		}
	})

// PanicState starts a write and panics halfway, leaving the state lock
// poisoned. Debug builds only.
var PanicState = container.Inject1(container.Mut[AppState](), func(state *AppState) any {
	state.Subject = ""
	panic("app: state update aborted halfway")
})

// resetState reseeds the state from configuration.
var resetState = container.Inject2(container.Ref[config.StateConfig](), container.Mut[AppState](),
	func(cfg config.StateConfig, state *AppState) any {
		*state = AppState{Greeting: cfg.Greeting, Subject: cfg.Subject}
		return stateView(*state)
	})

func stateView(s AppState) map[string]any {
	return map[string]any{
		"greeting": s.Greeting,
		"subject":  s.Subject,
		"message":  s.Message(),
	}
}
