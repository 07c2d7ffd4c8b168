package unitsController

import (
	"context"

	"bunkhouse/internal/controllers/validate"
	. "bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

type UnitsController struct {
	units    *services.UnitRegistryService
	problems *services.ProblemService
	reports  *services.ReportService
}

type SetToRentRequest struct {
	ToRent *bool `json:"toRent" validate:"required"`
}

type AvailableQuery struct {
	Gender string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type CleaningStatusQuery struct {
	Status string `json:"status" validate:"required,oneof=cleaned to_be_cleaned"`
}

type UnitDetail struct {
	Unit
	OpenProblems []Problem `json:"openProblems"`
}

type UnitsControllerInterface interface {
	List(ctx context.Context) ([]Unit, error)
	Get(ctx context.Context, number string) (*UnitDetail, error)
	Available(ctx context.Context, query AvailableQuery) ([]Unit, error)
	Sections(ctx context.Context) ([]services.SectionOccupancy, error)
	SetToRent(ctx context.Context, number string, request *SetToRentRequest) (*Unit, error)
	MarkCleaned(ctx context.Context, actor, number string) (*Unit, error)
	MarkNeedsCleaning(ctx context.Context, number string) (*Unit, error)
	MarkAllCleaned(ctx context.Context, actor string) (int, error)
	ByCleaningStatus(ctx context.Context, query CleaningStatusQuery) ([]Unit, error)
	CleaningHistory(
		ctx context.Context,
		number string,
		page repositories.Pagination,
	) (repositories.Page[CleaningRecord], error)
}

func New(
	units *services.UnitRegistryService,
	problems *services.ProblemService,
	reports *services.ReportService,
) UnitsControllerInterface {
	return &UnitsController{
		units:    units,
		problems: problems,
		reports:  reports,
	}
}

func (c *UnitsController) List(ctx context.Context) ([]Unit, error) {
	return c.units.ListAll(ctx)
}

func (c *UnitsController) Get(ctx context.Context, number string) (*UnitDetail, error) {
	log := logger.NewWithContext(ctx, "unitsController").Function("Get")

	unit, err := c.units.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	problems, err := c.problems.ListForUnit(ctx, number)
	if err != nil {
		return nil, log.Err("failed to load unit problems", err, "unit", number)
	}

	open := make([]Problem, 0, len(problems))
	for _, problem := range problems {
		if !problem.IsResolved {
			open = append(open, problem)
		}
	}

	return &UnitDetail{Unit: *unit, OpenProblems: open}, nil
}

func (c *UnitsController) Available(ctx context.Context, query AvailableQuery) ([]Unit, error) {
	if err := validate.Struct(query); err != nil {
		return nil, err
	}
	return c.units.AvailableForCheckIn(ctx, query.Gender)
}

func (c *UnitsController) Sections(ctx context.Context) ([]services.SectionOccupancy, error) {
	return c.reports.Sections(ctx)
}

func (c *UnitsController) SetToRent(
	ctx context.Context,
	number string,
	request *SetToRentRequest,
) (*Unit, error) {
	if err := validate.Struct(request); err != nil {
		return nil, err
	}
	return c.units.SetToRent(ctx, number, *request.ToRent)
}

func (c *UnitsController) MarkCleaned(ctx context.Context, actor, number string) (*Unit, error) {
	return c.units.MarkCleaned(ctx, number, actor)
}

func (c *UnitsController) MarkNeedsCleaning(ctx context.Context, number string) (*Unit, error) {
	return c.units.MarkNeedsCleaning(ctx, number)
}

func (c *UnitsController) MarkAllCleaned(ctx context.Context, actor string) (int, error) {
	return c.units.MarkAllCleaned(ctx, actor)
}

func (c *UnitsController) ByCleaningStatus(ctx context.Context, query CleaningStatusQuery) ([]Unit, error) {
	if err := validate.Struct(query); err != nil {
		return nil, err
	}
	return c.units.ListByCleaningStatus(ctx, CleaningStatus(query.Status))
}

func (c *UnitsController) CleaningHistory(
	ctx context.Context,
	number string,
	page repositories.Pagination,
) (repositories.Page[CleaningRecord], error) {
	return c.units.CleaningHistory(ctx, number, page)
}
