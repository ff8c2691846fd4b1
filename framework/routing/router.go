package routing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/http/validation"
	frameworklog "github.com/km-arc/go-ioc/framework/log"
)

const tracerName = "github.com/km-arc/go-ioc/framework/routing"

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID identifies one request. It is resolvable from the per-request
// resolver, like the request itself.
type RequestID string

// Handler is an injected route handler. It resolves its dependencies from
// the per-request resolver; see container.Inject1 and friends. The result is
// rendered as JSON: nil becomes 204, an *HTTPError becomes an error
// response, validation.Errors become 422, anything else is wrapped as
// {"data": ...}.
type Handler = container.Injected[any]

// HTTPError is a handler result that renders as an error response.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// Abort returns an *HTTPError for use as a handler result.
func Abort(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// Router wraps chi.Router. Each request gets its own container.Overlay on
// top of the shared resolver, holding *http.Request, gohttp.Request and
// RequestID.
type Router struct {
	mux      chi.Router
	resolver container.Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a Router resolving from res with sane defaults (request
// logging, Recoverer, RealIP).
func New(res container.Resolver, logger *slog.Logger) *Router {
	if logger == nil {
		logger = frameworklog.Discard()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).NotFound()
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Error(http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return &Router{
		mux:      r,
		resolver: res,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h Handler)    { r.mux.Get(pattern, r.serve(h)) }
func (r *Router) Post(pattern string, h Handler)   { r.mux.Post(pattern, r.serve(h)) }
func (r *Router) Delete(pattern string, h Handler) { r.mux.Delete(pattern, r.serve(h)) }

// Mount attaches a plain http.Handler, e.g. the Prometheus endpoint.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Prefix creates a sub-router with a URL prefix.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, resolver: r.resolver, logger: r.logger, tracer: r.tracer})
	})
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func (r *Router) serve(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := RequestID(req.Header.Get(RequestIDHeader))
		if id == "" {
			id = RequestID(uuid.NewString())
		}
		w.Header().Set(RequestIDHeader, string(id))

		pattern := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		ctx, span := r.tracer.Start(req.Context(), req.Method+" "+pattern,
			trace.WithAttributes(
				attribute.String("http.route", pattern),
				attribute.String("request.id", string(id)),
			))
		defer span.End()
		req = req.WithContext(ctx)

		res := container.NewOverlay(r.resolver)
		container.Provide(res, &req)
		container.Provide(res, gohttp.NewRequest(req))
		container.Provide(res, &id)

		out, err := h(res)
		response := gohttp.NewResponse(w)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.renderResolveError(response, id, pattern, err)
			return
		}
		render(response, out)
	}
}

func (r *Router) renderResolveError(res *gohttp.Response, id RequestID, pattern string, err error) {
	r.logger.Error("handler resolution failed",
		"request_id", string(id),
		"route", pattern,
		"kind", container.KindOf(err).String(),
		"error", err.Error(),
	)
	if errors.Is(err, container.ErrPoisoned) {
		res.Unavailable(err.Error())
		return
	}
	res.ServerError(err.Error())
}

func render(res *gohttp.Response, out any) {
	switch v := out.(type) {
	case nil:
		res.NoContent()
	case *HTTPError:
		if v == nil {
			res.NoContent()
			return
		}
		res.Error(v.Code, v.Message)
	case validation.Errors:
		res.ValidationError(v)
	default:
		res.Success(v)
	}
}

// requestLogger logs one line per request with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", req.Method,
					"path", req.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", ww.Header().Get(RequestIDHeader),
				)
			}()
			next.ServeHTTP(ww, req)
		})
	}
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
