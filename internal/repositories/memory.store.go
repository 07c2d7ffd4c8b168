package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
)

type memoryTxKey struct{}

type memoryState struct {
	units    map[string]models.Unit
	stays    map[uuid.UUID]models.Stay
	problems map[uuid.UUID]models.Problem
	tokens   map[string]models.GuestToken
	cleaning []models.CleaningRecord
	settings *models.Settings
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		units:    make(map[string]models.Unit, len(s.units)),
		stays:    make(map[uuid.UUID]models.Stay, len(s.stays)),
		problems: make(map[uuid.UUID]models.Problem, len(s.problems)),
		tokens:   make(map[string]models.GuestToken, len(s.tokens)),
		cleaning: append([]models.CleaningRecord(nil), s.cleaning...),
	}
	for k, v := range s.units {
		out.units[k] = v
	}
	for k, v := range s.stays {
		out.stays[k] = v
	}
	for k, v := range s.problems {
		out.problems[k] = v
	}
	for k, v := range s.tokens {
		out.tokens[k] = v
	}
	if s.settings != nil {
		settings := *s.settings
		out.settings = &settings
	}
	return out
}

// MemoryStore keeps every record in process. A single mutex serializes all
// access, which makes each call and each Atomic block linearizable.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState
	now   func() time.Time
	log   logger.Logger
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock stamps CreatedAt and UpdatedAt from clock.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			units:    map[string]models.Unit{},
			stays:    map[uuid.UUID]models.Stay{},
			problems: map[uuid.UUID]models.Problem{},
			tokens:   map[string]models.GuestToken{},
		},
		now: func() time.Time { return clock().UTC() },
		log: logger.New("memoryStore"),
	}
}

// lock acquires the store mutex unless ctx belongs to an Atomic block that
// already holds it.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(memoryTxKey{}).(*MemoryStore); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, ok := ctx.Value(memoryTxKey{}).(*MemoryStore); ok && owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if r := recover(); r != nil {
			s.state = snapshot
			panic(r)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, s))
}

// Units

func (s *MemoryStore) CreateUnit(ctx context.Context, unit *models.Unit) error {
	defer s.lock(ctx)()

	if _, exists := s.state.units[unit.Number]; exists {
		return s.log.Function("CreateUnit").ErrorWithType(ErrStorage, "unit already exists", "unitNumber", unit.Number)
	}
	now := s.now()
	unit.CreatedAt, unit.UpdatedAt = now, now
	s.state.units[unit.Number] = *unit
	return nil
}

func (s *MemoryStore) GetUnit(ctx context.Context, number string) (*models.Unit, error) {
	defer s.lock(ctx)()

	unit, ok := s.state.units[number]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &unit, nil
}

func (s *MemoryStore) ListUnits(ctx context.Context) ([]models.Unit, error) {
	defer s.lock(ctx)()

	units := make([]models.Unit, 0, len(s.state.units))
	for _, unit := range s.state.units {
		units = append(units, unit)
	}
	SortUnits(units)
	return units, nil
}

func (s *MemoryStore) ListUnitsByCleaningStatus(ctx context.Context, status models.CleaningStatus) ([]models.Unit, error) {
	defer s.lock(ctx)()

	units := []models.Unit{}
	for _, unit := range s.state.units {
		if unit.CleaningStatus == status {
			units = append(units, unit)
		}
	}
	SortUnits(units)
	return units, nil
}

func (s *MemoryStore) updateUnit(number string, mutate func(u *models.Unit)) error {
	unit, ok := s.state.units[number]
	if !ok {
		return ErrRecordNotFound
	}
	mutate(&unit)
	unit.UpdatedAt = s.now()
	s.state.units[number] = unit
	return nil
}

func (s *MemoryStore) SetUnitAvailability(ctx context.Context, number string, available bool) error {
	defer s.lock(ctx)()

	return s.updateUnit(number, func(u *models.Unit) { u.IsAvailable = available })
}

func (s *MemoryStore) ClaimUnit(ctx context.Context, number string) (bool, error) {
	defer s.lock(ctx)()

	unit, ok := s.state.units[number]
	if !ok || !unit.IsAvailable {
		return false, nil
	}
	return true, s.updateUnit(number, func(u *models.Unit) { u.IsAvailable = false })
}

func (s *MemoryStore) SetUnitCleaningStatus(
	ctx context.Context,
	number string,
	status models.CleaningStatus,
	actor string,
	at time.Time,
) error {
	defer s.lock(ctx)()

	return s.updateUnit(number, func(u *models.Unit) {
		if status == models.CleaningStatusCleaned {
			u.MarkCleaned(actor, at)
			return
		}
		u.CleaningStatus = status
	})
}

func (s *MemoryStore) SetUnitToRent(ctx context.Context, number string, toRent bool) error {
	defer s.lock(ctx)()

	return s.updateUnit(number, func(u *models.Unit) { u.ToRent = toRent })
}

// Stays

func (s *MemoryStore) CreateStay(ctx context.Context, stay *models.Stay) error {
	defer s.lock(ctx)()

	if stay.IsCheckedIn {
		for _, existing := range s.state.stays {
			if existing.UnitNumber == stay.UnitNumber && existing.IsCheckedIn {
				return s.log.Function("CreateStay").
					ErrorWithType(ErrStorage, "active stay already exists for unit", "unitNumber", stay.UnitNumber)
			}
		}
	}

	stay.EnsureID()
	now := s.now()
	stay.CreatedAt, stay.UpdatedAt = now, now
	s.state.stays[stay.ID] = *stay
	return nil
}

func (s *MemoryStore) GetStay(ctx context.Context, id uuid.UUID) (*models.Stay, error) {
	defer s.lock(ctx)()

	stay, ok := s.state.stays[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &stay, nil
}

func (s *MemoryStore) SaveStay(ctx context.Context, stay *models.Stay) error {
	defer s.lock(ctx)()

	if _, ok := s.state.stays[stay.ID]; !ok {
		return ErrRecordNotFound
	}
	if stay.IsCheckedIn {
		for id, existing := range s.state.stays {
			if id != stay.ID && existing.UnitNumber == stay.UnitNumber && existing.IsCheckedIn {
				return s.log.Function("SaveStay").
					ErrorWithType(ErrStorage, "active stay already exists for unit", "unitNumber", stay.UnitNumber)
			}
		}
	}

	stay.UpdatedAt = s.now()
	s.state.stays[stay.ID] = *stay
	return nil
}

func (s *MemoryStore) staysWhere(match func(models.Stay) bool) []models.Stay {
	stays := []models.Stay{}
	for _, stay := range s.state.stays {
		if match(stay) {
			stays = append(stays, stay)
		}
	}
	return stays
}

func (s *MemoryStore) ListActiveStays(ctx context.Context, page Pagination) (Page[models.Stay], error) {
	defer s.lock(ctx)()

	stays := s.staysWhere(func(st models.Stay) bool { return st.IsCheckedIn })
	sort.Slice(stays, func(i, j int) bool {
		if !stays[i].CheckinTime.Equal(stays[j].CheckinTime) {
			return stays[i].CheckinTime.After(stays[j].CheckinTime)
		}
		return stays[i].ID.String() < stays[j].ID.String()
	})
	return paginate(stays, page), nil
}

func sortByCheckoutDesc(stays []models.Stay) {
	sort.Slice(stays, func(i, j int) bool {
		a, b := stays[i].CheckoutTime, stays[j].CheckoutTime
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return stays[i].ID.String() < stays[j].ID.String()
	})
}

func (s *MemoryStore) ListStayHistory(ctx context.Context, page Pagination, filter StayFilter) (Page[models.Stay], error) {
	defer s.lock(ctx)()

	stays := s.staysWhere(func(st models.Stay) bool {
		return !st.IsCheckedIn && st.CheckoutTime != nil && filter.matches(st)
	})
	sortByCheckoutDesc(stays)
	return paginate(stays, page), nil
}

func (s *MemoryStore) ActiveStayUnits(ctx context.Context) ([]string, error) {
	defer s.lock(ctx)()

	units := []string{}
	for _, stay := range s.state.stays {
		if stay.IsCheckedIn {
			units = append(units, stay.UnitNumber)
		}
	}
	sort.Strings(units)
	return units, nil
}

func (s *MemoryStore) ActiveStayForUnit(ctx context.Context, number string) (*models.Stay, error) {
	defer s.lock(ctx)()

	for _, stay := range s.state.stays {
		if stay.IsCheckedIn && stay.UnitNumber == number {
			return &stay, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) LatestCheckedOutStay(ctx context.Context) (*models.Stay, error) {
	defer s.lock(ctx)()

	stays := s.staysWhere(func(st models.Stay) bool { return !st.IsCheckedIn && st.CheckoutTime != nil })
	if len(stays) == 0 {
		return nil, ErrRecordNotFound
	}
	sortByCheckoutDesc(stays)
	return &stays[0], nil
}

func (s *MemoryStore) ListOverdueStays(ctx context.Context, before time.Time) ([]models.Stay, error) {
	defer s.lock(ctx)()

	stays := s.staysWhere(func(st models.Stay) bool {
		return st.IsOverdue(before)
	})
	sort.Slice(stays, func(i, j int) bool {
		return stays[i].ExpectedCheckoutDate.Before(*stays[j].ExpectedCheckoutDate)
	})
	return stays, nil
}

// Problems

func (s *MemoryStore) CreateProblem(ctx context.Context, problem *models.Problem) error {
	defer s.lock(ctx)()

	problem.EnsureID()
	now := s.now()
	problem.CreatedAt, problem.UpdatedAt = now, now
	s.state.problems[problem.ID] = *problem
	return nil
}

func (s *MemoryStore) GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	defer s.lock(ctx)()

	problem, ok := s.state.problems[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &problem, nil
}

func (s *MemoryStore) SaveProblem(ctx context.Context, problem *models.Problem) error {
	defer s.lock(ctx)()

	if _, ok := s.state.problems[problem.ID]; !ok {
		return ErrRecordNotFound
	}
	problem.UpdatedAt = s.now()
	s.state.problems[problem.ID] = *problem
	return nil
}

func (s *MemoryStore) DeleteProblem(ctx context.Context, id uuid.UUID) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.state.problems[id]; !ok {
		return false, nil
	}
	delete(s.state.problems, id)
	return true, nil
}

func (s *MemoryStore) problemsWhere(match func(models.Problem) bool) []models.Problem {
	problems := []models.Problem{}
	for _, problem := range s.state.problems {
		if match(problem) {
			problems = append(problems, problem)
		}
	}
	sort.Slice(problems, func(i, j int) bool {
		if !problems[i].ReportedAt.Equal(problems[j].ReportedAt) {
			return problems[i].ReportedAt.After(problems[j].ReportedAt)
		}
		return problems[i].ID.String() < problems[j].ID.String()
	})
	return problems
}

func (s *MemoryStore) ListActiveProblems(ctx context.Context, page Pagination) (Page[models.Problem], error) {
	defer s.lock(ctx)()

	return paginate(s.problemsWhere(func(p models.Problem) bool { return !p.IsResolved }), page), nil
}

func (s *MemoryStore) ListProblems(ctx context.Context, page Pagination) (Page[models.Problem], error) {
	defer s.lock(ctx)()

	return paginate(s.problemsWhere(func(models.Problem) bool { return true }), page), nil
}

func (s *MemoryStore) ListProblemsForUnit(ctx context.Context, number string) ([]models.Problem, error) {
	defer s.lock(ctx)()

	return s.problemsWhere(func(p models.Problem) bool { return p.UnitNumber == number }), nil
}

func (s *MemoryStore) ListOpenProblems(ctx context.Context) ([]models.Problem, error) {
	defer s.lock(ctx)()

	return s.problemsWhere(func(p models.Problem) bool { return !p.IsResolved }), nil
}

func (s *MemoryStore) CountOpenProblems(ctx context.Context, number string) (int64, error) {
	defer s.lock(ctx)()

	var count int64
	for _, problem := range s.state.problems {
		if problem.UnitNumber == number && !problem.IsResolved {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) OpenProblemUnits(ctx context.Context) ([]string, error) {
	defer s.lock(ctx)()

	seen := map[string]struct{}{}
	units := []string{}
	for _, problem := range s.state.problems {
		if problem.IsResolved {
			continue
		}
		if _, ok := seen[problem.UnitNumber]; !ok {
			seen[problem.UnitNumber] = struct{}{}
			units = append(units, problem.UnitNumber)
		}
	}
	sort.Strings(units)
	return units, nil
}

// Tokens

func (s *MemoryStore) CreateToken(ctx context.Context, token *models.GuestToken) error {
	defer s.lock(ctx)()

	if _, exists := s.state.tokens[token.Token]; exists {
		return s.log.Function("CreateToken").ErrorWithType(ErrStorage, "token already exists")
	}
	token.EnsureID()
	now := s.now()
	token.CreatedAt, token.UpdatedAt = now, now
	s.state.tokens[token.Token] = *token
	return nil
}

func (s *MemoryStore) GetToken(ctx context.Context, token string) (*models.GuestToken, error) {
	defer s.lock(ctx)()

	found, ok := s.state.tokens[token]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &found, nil
}

func (s *MemoryStore) MarkTokenUsed(ctx context.Context, id uuid.UUID, stayID uuid.UUID, at time.Time) (bool, error) {
	defer s.lock(ctx)()

	for key, token := range s.state.tokens {
		if token.ID != id {
			continue
		}
		if token.IsUsed {
			return false, nil
		}
		token.MarkUsed(stayID, at)
		token.UpdatedAt = s.now()
		s.state.tokens[key] = token
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) DeleteToken(ctx context.Context, token string) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.state.tokens[token]; !ok {
		return false, nil
	}
	delete(s.state.tokens, token)
	return true, nil
}

func (s *MemoryStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	defer s.lock(ctx)()

	var count int64
	for key, token := range s.state.tokens {
		if token.IsExpired(now) {
			delete(s.state.tokens, key)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListActiveTokens(ctx context.Context, now time.Time, page Pagination) (Page[models.GuestToken], error) {
	defer s.lock(ctx)()

	tokens := []models.GuestToken{}
	for _, token := range s.state.tokens {
		if token.IsRedeemable(now) {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		if !tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
		}
		return tokens[i].Token < tokens[j].Token
	})
	return paginate(tokens, page), nil
}

// Settings

func (s *MemoryStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	defer s.lock(ctx)()

	if s.state.settings == nil {
		return nil, ErrRecordNotFound
	}
	settings := *s.state.settings
	return &settings, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, settings *models.Settings) error {
	defer s.lock(ctx)()

	settings.ID = models.SettingsID
	settings.UpdatedAt = s.now()
	stored := *settings
	s.state.settings = &stored
	return nil
}

// Cleaning log

func (s *MemoryStore) CreateCleaningRecord(ctx context.Context, record *models.CleaningRecord) error {
	defer s.lock(ctx)()

	record.EnsureID()
	now := s.now()
	record.CreatedAt, record.UpdatedAt = now, now
	s.state.cleaning = append(s.state.cleaning, *record)
	return nil
}

func (s *MemoryStore) ListCleaningRecords(ctx context.Context, number string, page Pagination) (Page[models.CleaningRecord], error) {
	defer s.lock(ctx)()

	records := []models.CleaningRecord{}
	for i := len(s.state.cleaning) - 1; i >= 0; i-- {
		if number == "" || s.state.cleaning[i].UnitNumber == number {
			records = append(records, s.state.cleaning[i])
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CleanedAt.After(records[j].CleanedAt)
	})
	return paginate(records, page), nil
}
