package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/configuration"
)

// StaticController serves uploaded avatar images.
type StaticController struct {
	basePath string
}

func NewStaticController(_ application.Application) application.Controller {
	return &StaticController{basePath: "/avatars/"}
}

func (c *StaticController) Key() string {
	return c.basePath
}

func (c *StaticController) Register(r *mux.Router) {
	conf := configuration.Use()
	fs := http.StripPrefix(c.basePath, http.FileServer(http.Dir(conf.AvatarsPath)))
	r.PathPrefix(c.basePath).Handler(fs).Methods(http.MethodGet)
}
