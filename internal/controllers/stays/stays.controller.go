package staysController

import (
	"context"
	"time"

	"bunkhouse/internal/controllers/validate"
	. "bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
)

type StaysController struct {
	occupancy *services.OccupancyService
	reports   *services.ReportService
}

// CheckInRequest leaves UnitNumber empty to let the allocator choose.
type CheckInRequest struct {
	UnitNumber           string       `json:"unitNumber,omitempty"           validate:"omitempty,max=16"`
	Guest                GuestDetails `json:"guest"`
	ExpectedCheckoutDate string       `json:"expectedCheckoutDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes                *string      `json:"notes,omitempty"                validate:"omitempty,max=1000"`
}

type HistoryQuery struct {
	Unit  string `json:"unit"  validate:"omitempty,max=16"`
	Guest string `json:"guest" validate:"omitempty,max=120"`
	From  string `json:"from"  validate:"omitempty,datetime=2006-01-02"`
	To    string `json:"to"    validate:"omitempty,datetime=2006-01-02"`
}

type StaysControllerInterface interface {
	CheckIn(ctx context.Context, actor string, request *CheckInRequest) (*Stay, error)
	CheckOut(ctx context.Context, actor string, stayID uuid.UUID) (*Stay, error)
	UndoCheckout(ctx context.Context, actor string) (*Stay, error)
	ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[Stay], error)
	History(
		ctx context.Context,
		query HistoryQuery,
		page repositories.Pagination,
	) (repositories.Page[Stay], error)
	Overdue(ctx context.Context) ([]Stay, error)
	Occupancy(ctx context.Context) (services.OccupancySummary, error)
}

func New(occupancy *services.OccupancyService, reports *services.ReportService) StaysControllerInterface {
	return &StaysController{
		occupancy: occupancy,
		reports:   reports,
	}
}

func (c *StaysController) CheckIn(ctx context.Context, actor string, request *CheckInRequest) (*Stay, error) {
	log := logger.NewWithContext(ctx, "staysController").Function("CheckIn")

	if err := validate.Struct(request); err != nil {
		return nil, err
	}

	expected, err := validate.Date(request.ExpectedCheckoutDate)
	if err != nil {
		return nil, err
	}

	stay, err := c.occupancy.CheckIn(ctx, services.CheckInRequest{
		UnitNumber:           request.UnitNumber,
		Guest:                request.Guest,
		ExpectedCheckoutDate: expected,
		Notes:                request.Notes,
		Actor:                actor,
	})
	if err != nil {
		log.Warn("check-in rejected", "unit", request.UnitNumber, "error", err)
		return nil, err
	}

	return stay, nil
}

func (c *StaysController) CheckOut(ctx context.Context, actor string, stayID uuid.UUID) (*Stay, error) {
	return c.occupancy.CheckOut(ctx, stayID, actor)
}

func (c *StaysController) UndoCheckout(ctx context.Context, actor string) (*Stay, error) {
	return c.occupancy.UndoLastCheckout(ctx, actor)
}

func (c *StaysController) ListActive(
	ctx context.Context,
	page repositories.Pagination,
) (repositories.Page[Stay], error) {
	return c.occupancy.ListActive(ctx, page)
}

// History treats To as inclusive of the whole day.
func (c *StaysController) History(
	ctx context.Context,
	query HistoryQuery,
	page repositories.Pagination,
) (repositories.Page[Stay], error) {
	if err := validate.Struct(query); err != nil {
		return repositories.Page[Stay]{}, err
	}

	from, err := validate.Date(query.From)
	if err != nil {
		return repositories.Page[Stay]{}, err
	}
	to, err := validate.Date(query.To)
	if err != nil {
		return repositories.Page[Stay]{}, err
	}
	if to != nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	return c.occupancy.ListHistory(ctx, page, repositories.StayFilter{
		UnitNumber: query.Unit,
		GuestName:  query.Guest,
		From:       from,
		To:         to,
	})
}

func (c *StaysController) Overdue(ctx context.Context) ([]Stay, error) {
	return c.occupancy.Overdue(ctx)
}

func (c *StaysController) Occupancy(ctx context.Context) (services.OccupancySummary, error) {
	return c.reports.Occupancy(ctx)
}
