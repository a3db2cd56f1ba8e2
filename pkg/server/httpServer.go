package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"

	"github.com/flowcrm/flowcrm/pkg/application"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	controllers             []application.Controller
	middlewares             []mux.MiddlewareFunc
	notFoundHandler         http.Handler
	methodNotAllowedHandler http.Handler
}

func NewHTTPServer(
	app application.Application,
	notFoundHandler, methodNotAllowedHandler http.Handler,
) *HTTPServer {
	return &HTTPServer{
		controllers:             app.Controllers(),
		middlewares:             app.Middleware(),
		notFoundHandler:         notFoundHandler,
		methodNotAllowedHandler: methodNotAllowedHandler,
	}
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middlewares...)
	for _, controller := range s.controllers {
		controller.Register(r)
	}

	// Fallback handlers bypass r.Use, so thread them through the same chain.
	notFound := s.notFoundHandler
	notAllowed := s.methodNotAllowedHandler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		notFound = s.middlewares[i](notFound)
		notAllowed = s.middlewares[i](notAllowed)
	}
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

// Start serves until the context is canceled, then drains in-flight requests
// for up to shutdownTimeout before returning.
func (s *HTTPServer) Start(ctx context.Context, socketAddress string) error {
	srv := &http.Server{
		Addr:    socketAddress,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
