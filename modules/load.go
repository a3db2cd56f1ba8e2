package modules

import (
	"github.com/flowcrm/flowcrm/modules/core"
	"github.com/flowcrm/flowcrm/modules/crm"
	"github.com/flowcrm/flowcrm/pkg/application"
)

var BuiltInModules = []application.Module{
	core.NewModule(),
	crm.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
