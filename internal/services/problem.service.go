package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bunkhouse/internal/allocator"
	"bunkhouse/internal/events"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
)

type ProblemService struct {
	store        repositories.Store
	settings     *SettingsService
	availability *AvailabilityService
	notifier     events.Notifier
	now          Clock
	log          logger.Logger
}

func NewProblemService(
	store repositories.Store,
	settings *SettingsService,
	availability *AvailabilityService,
	notifier events.Notifier,
	clock Clock,
) *ProblemService {
	if notifier == nil {
		notifier = events.Noop{}
	}
	return &ProblemService{
		store:        store,
		settings:     settings,
		availability: availability,
		notifier:     notifier,
		now:          clock,
		log:          logger.New("problemService"),
	}
}

// Report opens a problem on a unit and takes the unit out of service.
func (s *ProblemService) Report(ctx context.Context, number, description, reportedBy string) (*models.Problem, error) {
	log := s.log.Function("Report").Unit(number).TraceFromContext(ctx)

	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	var problem *models.Problem
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetUnit(ctx, number); err != nil {
			return notFound(err, "unit", number)
		}

		problem = &models.Problem{
			UnitNumber:  number,
			Description: description,
			ReportedBy:  reportedBy,
			ReportedAt:  s.now(),
		}
		if err := s.store.CreateProblem(ctx, problem); err != nil {
			return log.Err("failed to create problem", err)
		}

		_, err := s.availability.Recompute(ctx, number, TriggerProblemReported)
		return err
	})
	if err != nil {
		return nil, err
	}

	problemsTotal.WithLabelValues("reported").Inc()
	log.Info("Problem reported", "problemID", problem.ID, "reportedBy", reportedBy)

	s.escalate(ctx, number)
	return problem, nil
}

// escalate raises a maintenance alert when no clean unit is left to give a
// guest in place of the broken one.
func (s *ProblemService) escalate(ctx context.Context, number string) {
	log := s.log.Function("escalate").Unit(number).TraceFromContext(ctx)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		log.Er("failed to load settings for escalation", err)
		return
	}

	snapshot, err := s.availability.Snapshot(ctx, settings)
	if err != nil {
		log.Er("failed to build snapshot for escalation", err)
		return
	}

	if allocator.HasCleanAlternative(snapshot, s.availability.Options(settings, ""), number) {
		return
	}

	problems, err := s.store.ListProblemsForUnit(ctx, number)
	if err != nil {
		log.Er("failed to list problems for escalation", err)
		return
	}

	descriptions := make([]string, 0, len(problems))
	for _, p := range problems {
		if !p.IsResolved {
			descriptions = append(descriptions, p.Description)
		}
	}

	notification := events.Notification{
		Type:       events.MaintenanceEscalation,
		UnitNumber: number,
		Problems:   descriptions,
		Timestamp:  s.now(),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		log.Er("failed to dispatch maintenance escalation", err)
		return
	}

	problemsTotal.WithLabelValues("escalated").Inc()
	log.Warn("Maintenance escalated", "openProblems", len(descriptions))
}

func (s *ProblemService) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string, notes *string) (*models.Problem, error) {
	log := s.log.Function("Resolve").TraceFromContext(ctx)

	var problem *models.Problem
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		problem, err = s.store.GetProblem(ctx, id)
		if err != nil {
			return notFound(err, "problem", id)
		}
		if problem.IsResolved {
			return fmt.Errorf("%w: %s", ErrProblemAlreadyResolved, id)
		}

		problem.Resolve(resolvedBy, notes, s.now())
		if err := s.store.SaveProblem(ctx, problem); err != nil {
			return log.Err("failed to save problem", err, "problemID", id)
		}

		_, err = s.availability.Recompute(ctx, problem.UnitNumber, TriggerProblemCleared)
		return err
	})
	if err != nil {
		return nil, err
	}

	problemsTotal.WithLabelValues("resolved").Inc()
	log.Info("Problem resolved", "problemID", id, "unitNumber", problem.UnitNumber, "resolvedBy", resolvedBy)
	return problem, nil
}

// Delete removes a problem and reports whether one existed.
func (s *ProblemService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	log := s.log.Function("Delete").TraceFromContext(ctx)

	var deleted bool
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		problem, err := s.store.GetProblem(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return log.Err("failed to load problem", err, "problemID", id)
		}

		deleted, err = s.store.DeleteProblem(ctx, id)
		if err != nil {
			return log.Err("failed to delete problem", err, "problemID", id)
		}

		_, err = s.availability.Recompute(ctx, problem.UnitNumber, TriggerProblemCleared)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		problemsTotal.WithLabelValues("deleted").Inc()
		log.Info("Problem deleted", "problemID", id)
	}
	return deleted, nil
}

func (s *ProblemService) Get(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	problem, err := s.store.GetProblem(ctx, id)
	if err != nil {
		return nil, notFound(err, "problem", id)
	}
	return problem, nil
}

func (s *ProblemService) ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[models.Problem], error) {
	return s.store.ListActiveProblems(ctx, page)
}

func (s *ProblemService) ListAll(ctx context.Context, page repositories.Pagination) (repositories.Page[models.Problem], error) {
	return s.store.ListProblems(ctx, page)
}

func (s *ProblemService) ListForUnit(ctx context.Context, number string) ([]models.Problem, error) {
	if _, err := s.store.GetUnit(ctx, number); err != nil {
		return nil, notFound(err, "unit", number)
	}
	return s.store.ListProblemsForUnit(ctx, number)
}
