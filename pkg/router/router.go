package router

import (
	"context"
	"net/http"

	"github.com/pacelog/backend/config"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/pkg/authenticator"
	"github.com/pacelog/backend/pkg/logger"
	"github.com/pacelog/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before a handler. It can derive a new context (for
// example, attaching the authenticated user id) or abort the request by
// returning an error.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response is written, with the handler error if
// any.
type CloserFunc func(ctx context.Context, err error)

type Router struct {
	mux *http.ServeMux

	db          *gorm.DB
	cfg         config.Configs
	logger      logger.Logger
	tokenEngine authenticator.TokenEngine[model.AccessToken]

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	return &Router{
		mux:         http.NewServeMux(),
		db:          db,
		cfg:         cfg,
		logger:      logger,
		tokenEngine: authenticator.NewTokenEngine[model.AccessToken](cfg.Auth),
	}
}

// Branch returns a router sharing the same mux but with an independent
// middleware chain.
func (r *Router) Branch() *Router {
	clone := *r
	clone.befores = append([]MiddlewareFunc{}, r.befores...)
	clone.afters = append([]MiddlewareFunc{}, r.afters...)
	clone.closers = append([]CloserFunc{}, r.closers...)
	return &clone
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(middleware MiddlewareFunc) {
	r.afters = append(r.afters, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) newRequestContext(req *http.Request, w http.ResponseWriter) context.Context {
	ctx := req.Context()
	ctx = xcontext.WithDB(ctx, r.db)
	ctx = xcontext.WithConfigs(ctx, r.cfg)
	ctx = xcontext.WithLogger(ctx, r.logger)
	ctx = xcontext.WithTokenEngine(ctx, r.tokenEngine)
	ctx = xcontext.WithHTTPRequest(ctx, req)
	ctx = xcontext.WithHTTPWriter(ctx, w)
	return ctx
}

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, httpReq *http.Request) {
		ctx := router.newRequestContext(httpReq, w)

		err := func() error {
			if httpReq.Method != method {
				return errNotSupportedMethod
			}

			var req Request
			if err := bindRequest(httpReq, method, &req); err != nil {
				router.logger.Warnf("Cannot bind the request: %v", err)
				return errBadRequest
			}

			for _, before := range router.befores {
				newCtx, err := before(ctx)
				if err != nil {
					return err
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			resp, err := handler(ctx, &req)
			if err != nil {
				return err
			}

			for _, after := range router.afters {
				newCtx, err := after(ctx)
				if err != nil {
					return err
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			return writeJson(w, newResponse(resp))
		}()

		if err != nil {
			if werr := writeJson(w, newErrorResponse(err)); werr != nil {
				router.logger.Errorf("Cannot write the error response: %v", werr)
			}
		}

		for _, closer := range router.closers {
			closer(ctx, err)
		}
	}
}
