package app

import (
	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/modules/delay"
	"github.com/vk/taskgrid/modules/env_vars"
	"github.com/vk/taskgrid/modules/http_request"
	"github.com/vk/taskgrid/modules/print"
)

// coreModules is the definitive list of all modules that are compiled into
// the taskgrid binary.
var coreModules = []registry.Module{
	&delay.Module{},
	&env_vars.Module{},
	&http_request.Module{},
	&print.Module{},
}
