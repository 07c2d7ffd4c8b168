// Package allocator picks the unit a new stay or self-check-in token should
// occupy. It works on an in-memory snapshot and never touches storage.
package allocator

import (
	"errors"
	"fmt"
	"sort"

	"bunkhouse/internal/models"
)

var (
	ErrNoUnitsAvailable = errors.New("no units available")
	ErrUnitUnavailable  = errors.New("unit unavailable")
)

type SectionRanges struct {
	Back   models.SectionRange
	Middle models.SectionRange
}

func DefaultSectionRanges() SectionRanges {
	return RangesFromSettings(models.DefaultSettings())
}

func RangesFromSettings(s models.Settings) SectionRanges {
	return SectionRanges{Back: s.BackSection(), Middle: s.MiddleSection()}
}

// SectionFor classifies a numeric suffix. Anything outside the back and
// middle ranges is front.
func (r SectionRanges) SectionFor(n int) models.UnitSection {
	switch {
	case r.Back.Contains(n):
		return models.SectionBack
	case r.Middle.Contains(n):
		return models.SectionMiddle
	default:
		return models.SectionFront
	}
}

// Snapshot is a consistent read of registry, ledger and tracker state.
type Snapshot struct {
	Units           []models.Unit
	ActiveStayUnits []string
	// Deprioritized units stay eligible but rank after every other candidate.
	Deprioritized []string
	Excluded      []string
}

type Options struct {
	Ranges SectionRanges
	// SectionOrder replaces the back, middle, front order when set.
	SectionOrder []models.UnitSection
}

func DefaultOptions() Options {
	return Options{Ranges: DefaultSectionRanges()}
}

type rankedUnit struct {
	unit          models.Unit
	deprioritized bool
	numeric       bool
	sectionRank   int
	odd           bool
	n             int
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sectionRanks(order []models.UnitSection) map[models.UnitSection]int {
	if len(order) == 0 {
		order = models.AllSections
	}

	ranks := make(map[models.UnitSection]int, len(models.AllSections))
	for i, section := range order {
		if _, seen := ranks[section]; !seen {
			ranks[section] = i
		}
	}
	// Sections missing from a partial override keep their default relative order.
	next := len(order)
	for _, section := range models.AllSections {
		if _, ok := ranks[section]; !ok {
			ranks[section] = next
			next++
		}
	}
	return ranks
}

func isEligible(u models.Unit, active, excluded map[string]struct{}) bool {
	if !u.IsAvailable || !u.ToRent {
		return false
	}
	if _, ok := excluded[u.Number]; ok {
		return false
	}
	if _, ok := active[u.Number]; ok {
		return false
	}
	return true
}

// Candidates returns every eligible unit, best first.
func Candidates(s Snapshot, opts Options) []models.Unit {
	active := toSet(s.ActiveStayUnits)
	excluded := toSet(s.Excluded)
	deprioritized := toSet(s.Deprioritized)
	ranks := sectionRanks(opts.SectionOrder)

	ranked := make([]rankedUnit, 0, len(s.Units))
	for _, u := range s.Units {
		if !isEligible(u, active, excluded) {
			continue
		}

		r := rankedUnit{unit: u}
		_, r.deprioritized = deprioritized[u.Number]
		if n, ok := u.Suffix(); ok {
			r.numeric = true
			r.n = n
			r.odd = n%2 != 0
			r.sectionRank = ranks[opts.Ranges.SectionFor(n)]
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.deprioritized != b.deprioritized {
			return !a.deprioritized
		}
		if a.numeric != b.numeric {
			return a.numeric
		}
		if a.sectionRank != b.sectionRank {
			return a.sectionRank < b.sectionRank
		}
		if a.odd != b.odd {
			return !a.odd
		}
		if a.n != b.n {
			return a.n < b.n
		}
		return a.unit.Number < b.unit.Number
	})

	units := make([]models.Unit, len(ranked))
	for i, r := range ranked {
		units[i] = r.unit
	}
	return units
}

func Assign(s Snapshot, opts Options) (models.Unit, error) {
	candidates := Candidates(s, opts)
	if len(candidates) == 0 {
		return models.Unit{}, ErrNoUnitsAvailable
	}
	return candidates[0], nil
}

// Validate applies the auto-assignment eligibility checks to an operator
// chosen unit without ranking it.
func Validate(s Snapshot, number string) (models.Unit, error) {
	active := toSet(s.ActiveStayUnits)
	excluded := toSet(s.Excluded)

	for _, u := range s.Units {
		if u.Number != number {
			continue
		}
		if !isEligible(u, active, excluded) {
			return models.Unit{}, fmt.Errorf("%w: %s", ErrUnitUnavailable, number)
		}
		return u, nil
	}
	return models.Unit{}, fmt.Errorf("%w: %s is not a registered unit", ErrUnitUnavailable, number)
}

// HasCleanAlternative reports whether any candidate other than number is
// ready for a guest right now.
func HasCleanAlternative(s Snapshot, opts Options, number string) bool {
	deprioritized := toSet(s.Deprioritized)
	for _, u := range Candidates(s, opts) {
		if u.Number == number || !u.IsClean() {
			continue
		}
		if _, ok := deprioritized[u.Number]; ok {
			continue
		}
		return true
	}
	return false
}
