package crm

import (
	"github.com/flowcrm/flowcrm/modules/crm/infrastructure/persistence"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/controllers"
	"github.com/flowcrm/flowcrm/modules/crm/services"
	"github.com/flowcrm/flowcrm/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	leads := persistence.NewLeadRepository()
	stages := persistence.NewStageRepository()

	app.RegisterServices(
		services.NewLeadService(leads, stages, app.EventPublisher()),
		services.NewStageService(stages),
		services.NewReorderService(leads, stages, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewLeadAPIController(app),
		controllers.NewStageAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "crm"
}
