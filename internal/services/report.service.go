package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bunkhouse/internal/events"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"github.com/shopspring/decimal"
)

type OccupancySummary struct {
	Total         int             `json:"total"`
	Occupied      int             `json:"occupied"`
	Available     int             `json:"available"`
	OccupancyRate decimal.Decimal `json:"occupancyRate"`
}

type SectionOccupancy struct {
	Section      models.UnitSection `json:"section"`
	Total        int                `json:"total"`
	Occupied     []string           `json:"occupied"`
	Available    []string           `json:"available"`
	OutOfService []string           `json:"outOfService"`
}

// ReportService summarises registry and ledger state for operators.
type ReportService struct {
	store     repositories.Store
	occupancy *OccupancyService
	notifier  events.Notifier
	now       Clock
	location  *time.Location
	log       logger.Logger
}

func NewReportService(
	store repositories.Store,
	occupancy *OccupancyService,
	notifier events.Notifier,
	clock Clock,
	location *time.Location,
) *ReportService {
	if notifier == nil {
		notifier = events.Noop{}
	}
	if location == nil {
		location = time.UTC
	}
	return &ReportService{
		store:     store,
		occupancy: occupancy,
		notifier:  notifier,
		now:       clock,
		location:  location,
		log:       logger.New("reportService"),
	}
}

type unitState struct {
	units  []models.Unit
	active map[string]struct{}
}

func (s *ReportService) loadUnitState(ctx context.Context) (unitState, error) {
	log := s.log.Function("loadUnitState").TraceFromContext(ctx)

	units, err := s.store.ListUnits(ctx)
	if err != nil {
		return unitState{}, log.Err("failed to list units", err)
	}

	activeUnits, err := s.store.ActiveStayUnits(ctx)
	if err != nil {
		return unitState{}, log.Err("failed to list active stay units", err)
	}

	active := make(map[string]struct{}, len(activeUnits))
	for _, number := range activeUnits {
		active[number] = struct{}{}
	}
	return unitState{units: units, active: active}, nil
}

// Occupancy counts rentable units and how many of them hold a guest.
func (s *ReportService) Occupancy(ctx context.Context) (OccupancySummary, error) {
	state, err := s.loadUnitState(ctx)
	if err != nil {
		return OccupancySummary{}, err
	}

	var summary OccupancySummary
	for _, unit := range state.units {
		if !unit.ToRent {
			continue
		}
		summary.Total++
		if _, ok := state.active[unit.Number]; ok {
			summary.Occupied++
		}
	}
	summary.Available = summary.Total - summary.Occupied
	summary.OccupancyRate = occupancyRate(summary.Occupied, summary.Total)
	return summary, nil
}

func occupancyRate(occupied, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(occupied)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// Sections groups every unit by section in back, middle, front order.
func (s *ReportService) Sections(ctx context.Context) ([]SectionOccupancy, error) {
	state, err := s.loadUnitState(ctx)
	if err != nil {
		return nil, err
	}

	repositories.SortUnits(state.units)

	bySection := make(map[models.UnitSection]*SectionOccupancy, len(models.AllSections))
	result := make([]SectionOccupancy, len(models.AllSections))
	for i, section := range models.AllSections {
		result[i] = SectionOccupancy{
			Section:      section,
			Occupied:     []string{},
			Available:    []string{},
			OutOfService: []string{},
		}
		bySection[section] = &result[i]
	}

	for _, unit := range state.units {
		group, ok := bySection[unit.Section]
		if !ok {
			continue
		}
		group.Total++

		_, occupied := state.active[unit.Number]
		switch {
		case occupied:
			group.Occupied = append(group.Occupied, unit.Number)
		case unit.IsAvailable && unit.ToRent:
			group.Available = append(group.Available, unit.Number)
		default:
			group.OutOfService = append(group.OutOfService, unit.Number)
		}
	}

	return result, nil
}

// MaintenanceExport renders open problems grouped by unit as plain text
// suitable for pasting into a chat.
func (s *ReportService) MaintenanceExport(ctx context.Context) (string, error) {
	log := s.log.Function("MaintenanceExport").TraceFromContext(ctx)

	problems, err := s.store.ListOpenProblems(ctx)
	if err != nil {
		return "", log.Err("failed to list open problems", err)
	}

	var b strings.Builder
	writeHeading(&b, "MAINTENANCE STATUS")

	if len(problems) == 0 {
		b.WriteString("No active maintenance issues\n")
		return b.String(), nil
	}

	byUnit := make(map[string][]models.Problem)
	units := make([]models.Unit, 0)
	for _, p := range problems {
		if _, seen := byUnit[p.UnitNumber]; !seen {
			units = append(units, models.Unit{Number: p.UnitNumber})
		}
		byUnit[p.UnitNumber] = append(byUnit[p.UnitNumber], p)
	}
	repositories.SortUnits(units)

	fmt.Fprintf(&b, "%d open issue(s) across %d unit(s)\n", len(problems), len(units))
	for _, unit := range units {
		unitProblems := byUnit[unit.Number]
		sort.SliceStable(unitProblems, func(i, j int) bool {
			return unitProblems[i].ReportedAt.Before(unitProblems[j].ReportedAt)
		})

		fmt.Fprintf(&b, "\n%s:\n", unit.Number)
		for _, p := range unitProblems {
			fmt.Fprintf(&b, "  - %s (reported by %s, %s)\n",
				p.Description,
				p.ReportedBy,
				p.ReportedAt.In(s.location).Format("2006-01-02"),
			)
		}
	}

	return b.String(), nil
}

func writeHeading(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(title)))
	b.WriteString("\n")
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

// DailyReport renders the operations report sent each morning.
func (s *ReportService) DailyReport(ctx context.Context) (string, error) {
	summary, err := s.Occupancy(ctx)
	if err != nil {
		return "", err
	}

	sections, err := s.Sections(ctx)
	if err != nil {
		return "", err
	}

	overdue, err := s.occupancy.Overdue(ctx)
	if err != nil {
		return "", err
	}

	maintenance, err := s.MaintenanceExport(ctx)
	if err != nil {
		return "", err
	}

	guests, err := s.store.ListActiveStays(ctx, repositories.Pagination{Page: 1, Limit: 1})
	if err != nil {
		return "", s.log.Function("DailyReport").Err("failed to count checked-in guests", err)
	}

	var b strings.Builder
	b.WriteString("DAILY OPERATIONS REPORT\n\n")

	writeHeading(&b, "OCCUPANCY")
	fmt.Fprintf(&b, "Total units: %d\n", summary.Total)
	fmt.Fprintf(&b, "Occupied: %d\n", summary.Occupied)
	fmt.Fprintf(&b, "Available: %d\n", summary.Available)
	fmt.Fprintf(&b, "Occupancy rate: %s%%\n\n", summary.OccupancyRate.StringFixed(2))

	writeHeading(&b, "UNITS BY SECTION")
	for _, section := range sections {
		if section.Total == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d units):\n", strings.ToUpper(string(section.Section)), section.Total)
		fmt.Fprintf(&b, "  Occupied: %s\n", joinOrNone(section.Occupied))
		fmt.Fprintf(&b, "  Available: %s\n", joinOrNone(section.Available))
		if len(section.OutOfService) > 0 {
			fmt.Fprintf(&b, "  Out of service: %s\n", joinOrNone(section.OutOfService))
		}
	}
	b.WriteString("\n")

	writeHeading(&b, "GUEST INFORMATION")
	fmt.Fprintf(&b, "Checked-in guests: %d\n\n", guests.Pagination.Total)

	writeHeading(&b, "OVERDUE GUESTS")
	if len(overdue) == 0 {
		b.WriteString("No overdue guests\n")
	} else {
		fmt.Fprintf(&b, "%d guest(s) past expected checkout:\n", len(overdue))
		for _, stay := range overdue {
			fmt.Fprintf(&b, "  - %s (%s) expected %s\n",
				stay.GuestName,
				stay.UnitNumber,
				stay.ExpectedCheckoutDate.UTC().Format("2006-01-02"),
			)
		}
	}
	b.WriteString("\n")

	b.WriteString(maintenance)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.now().In(s.location).Format("2006-01-02 15:04:05 MST"))

	return b.String(), nil
}

// PublishDailyReport builds the daily report and hands it to the notifier.
func (s *ReportService) PublishDailyReport(ctx context.Context) error {
	log := s.log.Function("PublishDailyReport").TraceFromContext(ctx)

	report, err := s.DailyReport(ctx)
	if err != nil {
		return err
	}

	notification := events.Notification{
		Type:      events.DailyReport,
		Report:    report,
		Timestamp: s.now(),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		return log.Err("failed to publish daily report", err)
	}

	log.Info("Daily report published", "bytes", len(report))
	return nil
}
