package resource

import (
	"fmt"

	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
)

// New builds a resource handle for the descriptor's backend family.
func New(conf config.Resource, log logger.Logger) (Resource, error) {
	if err := conf.Validate(); err != nil {
		return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name, Err: err}
	}

	switch conf.Family {
	case config.DirectAccess:
		return NewDirectAccess(conf, log)
	case config.RuntimeService:
		return NewRuntimeService(conf, log)
	case config.PasqalCloud:
		return NewPasqal(conf, log)
	}
	return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name,
		Err: fmt.Errorf("unknown backend family %q", conf.Family)}
}
