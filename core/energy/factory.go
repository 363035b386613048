package energy

import "github.com/kilianp07/powertask/core/factory"

var sourceRegistry = factory.NewRegistry[Source]()

// RegisterSource adds an energy source factory identified by name.
func RegisterSource(name string, f factory.Factory[Source]) error {
	return sourceRegistry.Register(name, f)
}

// NewSource creates a Source from the provided configuration.
func NewSource(cfg factory.ModuleConfig) (Source, error) {
	return sourceRegistry.Create(cfg)
}
