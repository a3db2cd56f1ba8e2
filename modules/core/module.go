package core

import (
	"github.com/flowcrm/flowcrm/modules/core/infrastructure/email"
	"github.com/flowcrm/flowcrm/modules/core/infrastructure/persistence"
	"github.com/flowcrm/flowcrm/modules/core/presentation/controllers"
	"github.com/flowcrm/flowcrm/modules/core/services"
	crmpersistence "github.com/flowcrm/flowcrm/modules/crm/infrastructure/persistence"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/metrics"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	userService := services.NewUserService(persistence.NewUserRepository(), conf.AvatarsPath)
	sessionService := services.NewSessionService(persistence.NewSessionRepository())

	app.RegisterServices(
		userService,
		sessionService,
		services.NewAuthService(
			userService,
			sessionService,
			crmpersistence.NewStageRepository(),
			persistence.NewResetTokenRepository(),
			email.NewSender(conf, conf.Logger()),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewAuthController(app),
		controllers.NewProfileController(app),
		controllers.NewStaticController(app),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	return nil
}

func (m *Module) Name() string {
	return "core"
}
