package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bunkhouse/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrStorage marks infrastructure failures of a backend, as opposed to
	// domain outcomes.
	ErrStorage = errors.New("storage failure")
)

func storageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

type UnitStore interface {
	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, number string) (*models.Unit, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	ListUnitsByCleaningStatus(ctx context.Context, status models.CleaningStatus) ([]models.Unit, error)
	SetUnitAvailability(ctx context.Context, number string, available bool) error
	// ClaimUnit flips an available unit to unavailable and reports whether
	// this caller won the flip.
	ClaimUnit(ctx context.Context, number string) (bool, error)
	SetUnitCleaningStatus(ctx context.Context, number string, status models.CleaningStatus, actor string, at time.Time) error
	SetUnitToRent(ctx context.Context, number string, toRent bool) error
}

type StayStore interface {
	CreateStay(ctx context.Context, stay *models.Stay) error
	GetStay(ctx context.Context, id uuid.UUID) (*models.Stay, error)
	SaveStay(ctx context.Context, stay *models.Stay) error
	ListActiveStays(ctx context.Context, page Pagination) (Page[models.Stay], error)
	ListStayHistory(ctx context.Context, page Pagination, filter StayFilter) (Page[models.Stay], error)
	ActiveStayUnits(ctx context.Context) ([]string, error)
	ActiveStayForUnit(ctx context.Context, number string) (*models.Stay, error)
	LatestCheckedOutStay(ctx context.Context) (*models.Stay, error)
	ListOverdueStays(ctx context.Context, before time.Time) ([]models.Stay, error)
}

type ProblemStore interface {
	CreateProblem(ctx context.Context, problem *models.Problem) error
	GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error)
	SaveProblem(ctx context.Context, problem *models.Problem) error
	DeleteProblem(ctx context.Context, id uuid.UUID) (bool, error)
	ListActiveProblems(ctx context.Context, page Pagination) (Page[models.Problem], error)
	ListProblems(ctx context.Context, page Pagination) (Page[models.Problem], error)
	ListProblemsForUnit(ctx context.Context, number string) ([]models.Problem, error)
	ListOpenProblems(ctx context.Context) ([]models.Problem, error)
	CountOpenProblems(ctx context.Context, number string) (int64, error)
	OpenProblemUnits(ctx context.Context) ([]string, error)
}

type TokenStore interface {
	CreateToken(ctx context.Context, token *models.GuestToken) error
	GetToken(ctx context.Context, token string) (*models.GuestToken, error)
	// MarkTokenUsed consumes an unused token and reports whether this caller
	// consumed it.
	MarkTokenUsed(ctx context.Context, id uuid.UUID, stayID uuid.UUID, at time.Time) (bool, error)
	DeleteToken(ctx context.Context, token string) (bool, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	ListActiveTokens(ctx context.Context, now time.Time, page Pagination) (Page[models.GuestToken], error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

type CleaningStore interface {
	CreateCleaningRecord(ctx context.Context, record *models.CleaningRecord) error
	ListCleaningRecords(ctx context.Context, number string, page Pagination) (Page[models.CleaningRecord], error)
}

// Store is the single storage facade both backends satisfy with identical
// pre and postconditions.
type Store interface {
	UnitStore
	StayStore
	ProblemStore
	TokenStore
	SettingsStore
	CleaningStore

	// Atomic runs fn so that either all of its writes persist or none do.
	// fn must use the context it receives for every store call.
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type StayFilter struct {
	UnitNumber string
	GuestName  string
	From       *time.Time
	To         *time.Time
}

func (f StayFilter) matches(stay models.Stay) bool {
	if f.UnitNumber != "" && stay.UnitNumber != f.UnitNumber {
		return false
	}
	if f.GuestName != "" && !containsFold(stay.GuestName, f.GuestName) {
		return false
	}
	if stay.CheckoutTime == nil {
		return f.From == nil && f.To == nil
	}
	if f.From != nil && stay.CheckoutTime.Before(*f.From) {
		return false
	}
	if f.To != nil && stay.CheckoutTime.After(*f.To) {
		return false
	}
	return true
}

// SortUnits orders units by numeric suffix, then code.
func SortUnits(units []models.Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, aok := units[i].Suffix()
		b, bok := units[j].Suffix()
		if aok != bok {
			return aok
		}
		if a != b {
			return a < b
		}
		return units[i].Number < units[j].Number
	})
}
