package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/httpapi"
	"github.com/flowcrm/flowcrm/pkg/middleware"
	"github.com/flowcrm/flowcrm/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.LogRequests(options.Logger),
		middleware.WithPool(options.Pool),
		middleware.Cors(options.Configuration.Origin),
		middleware.RequestParams(),
	)

	return server.NewHTTPServer(app, notFound(), methodNotAllowed()), nil
}

func notFound() http.Handler {
	return jsonError(http.StatusNotFound, "NOT_FOUND", "resource not found")
}

func methodNotAllowed() http.Handler {
	return jsonError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func jsonError(status int, code, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, status, code, message)
	})
}

// Router is a convenience for tests that need the assembled handler without
// binding a socket.
func Router(options *DefaultOptions) (*mux.Router, error) {
	srv, err := Default(options)
	if err != nil {
		return nil, err
	}
	return srv.Router(), nil
}
