package controller

import (
	"github.com/tnqbao/gau-3d-forge/config"
	"github.com/tnqbao/gau-3d-forge/http/socket"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/provider"
	"github.com/tnqbao/gau-3d-forge/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Providers  *provider.Provider
	Hub        *socket.Hub
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository, providers *provider.Provider, hub *socket.Hub) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Providers:  providers,
		Hub:        hub,
	}
}
