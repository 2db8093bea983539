// Package di assembles the registry engine: one document store per host
// document, the platform link manager, and the services on top of them.
package di

import (
	"localdev.tools/cli/internal/application/services"
	"localdev.tools/cli/internal/core/ports"
	"localdev.tools/cli/internal/infrastructure/docstore"
	"localdev.tools/cli/internal/infrastructure/hostconfig"
	"localdev.tools/cli/internal/infrastructure/link"
)

// Container holds all application dependencies.
type Container struct {
	Paths    hostconfig.Paths
	Links    ports.LinkManager
	Registry *services.RegistryService
	Verifier *services.VerifyService
}

// NewContainer builds the container against the host config directory
// resolved from the environment.
func NewContainer() (*Container, error) {
	return NewContainerAt(hostconfig.Resolve())
}

// NewContainerAt builds the container against an explicit host config
// directory, used by the --config-dir flag and by tests.
func NewContainerAt(paths hostconfig.Paths) (*Container, error) {
	settings := docstore.New(paths.SettingsPath())
	installed := docstore.New(paths.InstalledPluginsPath())
	marketplaces := docstore.New(paths.KnownMarketplacesPath())
	links := link.NewManager()

	return &Container{
		Paths:    paths,
		Links:    links,
		Registry: services.NewRegistryService(settings, installed, marketplaces, links, paths),
		Verifier: services.NewVerifyService(settings, installed, marketplaces, links, paths),
	}, nil
}
