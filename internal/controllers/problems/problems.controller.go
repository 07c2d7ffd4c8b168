package problemsController

import (
	"context"

	"bunkhouse/internal/controllers/validate"
	. "bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
)

type ProblemsController struct {
	problems *services.ProblemService
	reports  *services.ReportService
}

type ReportProblemRequest struct {
	UnitNumber  string `json:"unitNumber"  validate:"required,max=16"`
	Description string `json:"description" validate:"required,max=1000"`
}

type ResolveProblemRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ProblemsControllerInterface interface {
	Report(ctx context.Context, actor string, request *ReportProblemRequest) (*Problem, error)
	Resolve(
		ctx context.Context,
		actor string,
		problemID uuid.UUID,
		request *ResolveProblemRequest,
	) (*Problem, error)
	Delete(ctx context.Context, problemID uuid.UUID) (bool, error)
	ListAll(ctx context.Context, page repositories.Pagination) (repositories.Page[Problem], error)
	ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[Problem], error)
	ListForUnit(ctx context.Context, number string) ([]Problem, error)
	Export(ctx context.Context) (string, error)
}

func New(problems *services.ProblemService, reports *services.ReportService) ProblemsControllerInterface {
	return &ProblemsController{
		problems: problems,
		reports:  reports,
	}
}

func (c *ProblemsController) Report(
	ctx context.Context,
	actor string,
	request *ReportProblemRequest,
) (*Problem, error) {
	if err := validate.Struct(request); err != nil {
		return nil, err
	}
	return c.problems.Report(ctx, request.UnitNumber, request.Description, actor)
}

func (c *ProblemsController) Resolve(
	ctx context.Context,
	actor string,
	problemID uuid.UUID,
	request *ResolveProblemRequest,
) (*Problem, error) {
	log := logger.NewWithContext(ctx, "problemsController").Function("Resolve")

	if request == nil {
		request = &ResolveProblemRequest{}
	}
	if err := validate.Struct(request); err != nil {
		return nil, err
	}

	problem, err := c.problems.Resolve(ctx, problemID, actor, request.Notes)
	if err != nil {
		log.Warn("resolve rejected", "problemID", problemID, "error", err)
		return nil, err
	}
	return problem, nil
}

func (c *ProblemsController) Delete(ctx context.Context, problemID uuid.UUID) (bool, error) {
	return c.problems.Delete(ctx, problemID)
}

func (c *ProblemsController) ListAll(
	ctx context.Context,
	page repositories.Pagination,
) (repositories.Page[Problem], error) {
	return c.problems.ListAll(ctx, page)
}

func (c *ProblemsController) ListActive(
	ctx context.Context,
	page repositories.Pagination,
) (repositories.Page[Problem], error) {
	return c.problems.ListActive(ctx, page)
}

func (c *ProblemsController) ListForUnit(ctx context.Context, number string) ([]Problem, error) {
	return c.problems.ListForUnit(ctx, number)
}

func (c *ProblemsController) Export(ctx context.Context) (string, error) {
	return c.reports.MaintenanceExport(ctx)
}
