package repositories

import (
	"context"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type problemRepository struct {
	db  database.DB
	log logger.Logger
}

const problemOrder = "reported_at DESC, id ASC"

func (r *problemRepository) CreateProblem(ctx context.Context, problem *models.Problem) error {
	log := r.log.Function("CreateProblem").Unit(problem.UnitNumber)

	if err := gorm.G[models.Problem](conn(ctx, r.db)).Create(ctx, problem); err != nil {
		return storageError(log.Err("failed to create problem", err))
	}
	return nil
}

func (r *problemRepository) GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	problem, err := gorm.G[models.Problem](conn(ctx, r.db)).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &problem, nil
}

func (r *problemRepository) SaveProblem(ctx context.Context, problem *models.Problem) error {
	log := r.log.Function("SaveProblem").Unit(problem.UnitNumber)

	result := conn(ctx, r.db).Model(problem).Select("*").Omit("created_at").Updates(problem)
	if result.Error != nil {
		return storageError(log.Err("failed to save problem", result.Error, "problemID", problem.ID))
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *problemRepository) DeleteProblem(ctx context.Context, id uuid.UUID) (bool, error) {
	log := r.log.Function("DeleteProblem")

	rowsAffected, err := gorm.G[models.Problem](conn(ctx, r.db)).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return false, storageError(log.Err("failed to delete problem", err, "problemID", id))
	}
	return rowsAffected > 0, nil
}

func (r *problemRepository) ListActiveProblems(ctx context.Context, page Pagination) (Page[models.Problem], error) {
	log := r.log.Function("ListActiveProblems")

	query := conn(ctx, r.db).Model(&models.Problem{}).Where("is_resolved = ?", false)
	result, err := paginateQuery[models.Problem](query, problemOrder, page)
	if err != nil {
		return Page[models.Problem]{}, storageError(log.Err("failed to list active problems", err))
	}
	return result, nil
}

func (r *problemRepository) ListProblems(ctx context.Context, page Pagination) (Page[models.Problem], error) {
	log := r.log.Function("ListProblems")

	result, err := paginateQuery[models.Problem](conn(ctx, r.db).Model(&models.Problem{}), problemOrder, page)
	if err != nil {
		return Page[models.Problem]{}, storageError(log.Err("failed to list problems", err))
	}
	return result, nil
}

func (r *problemRepository) ListProblemsForUnit(ctx context.Context, number string) ([]models.Problem, error) {
	log := r.log.Function("ListProblemsForUnit").Unit(number)

	problems, err := gorm.G[models.Problem](conn(ctx, r.db)).
		Where("unit_number = ?", number).
		Order(problemOrder).
		Find(ctx)
	if err != nil {
		return nil, storageError(log.Err("failed to list problems for unit", err))
	}
	return problems, nil
}

func (r *problemRepository) ListOpenProblems(ctx context.Context) ([]models.Problem, error) {
	log := r.log.Function("ListOpenProblems")

	problems, err := gorm.G[models.Problem](conn(ctx, r.db)).
		Where("is_resolved = ?", false).
		Order(problemOrder).
		Find(ctx)
	if err != nil {
		return nil, storageError(log.Err("failed to list open problems", err))
	}
	return problems, nil
}

func (r *problemRepository) CountOpenProblems(ctx context.Context, number string) (int64, error) {
	count, err := gorm.G[models.Problem](conn(ctx, r.db)).
		Where("unit_number = ? AND is_resolved = ?", number, false).
		Count(ctx, "*")
	if err != nil {
		return 0, storageError(r.log.Function("CountOpenProblems").Unit(number).
			Err("failed to count open problems", err))
	}
	return count, nil
}

func (r *problemRepository) OpenProblemUnits(ctx context.Context) ([]string, error) {
	log := r.log.Function("OpenProblemUnits")

	var units []string
	err := conn(ctx, r.db).Model(&models.Problem{}).
		Where("is_resolved = ?", false).
		Distinct("unit_number").
		Order("unit_number").
		Pluck("unit_number", &units).Error
	if err != nil {
		return nil, storageError(log.Err("failed to load units with open problems", err))
	}
	if units == nil {
		units = []string{}
	}
	return units, nil
}
