package controllers

import (
	"bunkhouse/internal/services"

	problemsController "bunkhouse/internal/controllers/problems"
	settingsController "bunkhouse/internal/controllers/settings"
	staysController "bunkhouse/internal/controllers/stays"
	tokensController "bunkhouse/internal/controllers/tokens"
	unitsController "bunkhouse/internal/controllers/units"
)

type Controllers struct {
	Units    unitsController.UnitsControllerInterface
	Stays    staysController.StaysControllerInterface
	Problems problemsController.ProblemsControllerInterface
	Tokens   tokensController.TokensControllerInterface
	Settings settingsController.SettingsControllerInterface
}

func New(service services.Service) Controllers {
	return Controllers{
		Units:    unitsController.New(service.Units, service.Problems, service.Reports),
		Stays:    staysController.New(service.Occupancy, service.Reports),
		Problems: problemsController.New(service.Problems, service.Reports),
		Tokens:   tokensController.New(service.Tokens, service.Clock),
		Settings: settingsController.New(service.Settings),
	}
}
