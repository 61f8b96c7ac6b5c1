// Package suites holds the contract checks for the contact registry.
package suites

import (
	"go.uber.org/zap"

	"github.com/smileynet/contacts/internal/fixture"
	"github.com/smileynet/contacts/internal/harness"
)

// Suite names.
const (
	ContractSuite   = "contract"
	PropertiesSuite = "properties"
)

// Options supplies the inputs shared by the registry suites.
type Options struct {
	Logger  *zap.Logger
	Repeat  int           // Repetitions for repeated checks; values below 1 mean 1.
	Valid   []fixture.Row // Rows the registry must accept.
	Invalid []fixture.Row // Rows the registry must reject.
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Register adds every registry suite to r. Options are resolved per build
// so fixture loading errors surface from Registry.NewSuite.
func Register(r *harness.Registry, opts func() (Options, error)) {
	r.Register(ContractSuite, func() (*harness.Suite, error) {
		o, err := opts()
		if err != nil {
			return nil, err
		}
		return Contract(o), nil
	})
	r.Register(PropertiesSuite, func() (*harness.Suite, error) {
		o, err := opts()
		if err != nil {
			return nil, err
		}
		return Properties(o), nil
	})
}
