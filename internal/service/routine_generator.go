package service

import (
	"math/rand"
	"time"

	"github.com/noah-isme/routine-planner-api/internal/models"
	"github.com/noah-isme/routine-planner-api/pkg/timetable"
)

// MaxRoutineCombinations bounds how many routines a single search collects.
const MaxRoutineCombinations = 500

// RoutineGenerator enumerates conflict-free section combinations.
// A generator is not safe for concurrent use; build one per search.
type RoutineGenerator struct {
	rng       *rand.Rand
	maxVisits int
}

// RoutineGeneratorOption customises a generator.
type RoutineGeneratorOption func(*RoutineGenerator)

// WithSeed makes the output order reproducible.
func WithSeed(seed int64) RoutineGeneratorOption {
	return func(g *RoutineGenerator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithMaxVisits stops the search after the given number of candidate placements. Zero disables the budget.
func WithMaxVisits(limit int) RoutineGeneratorOption {
	return func(g *RoutineGenerator) {
		if limit > 0 {
			g.maxVisits = limit
		}
	}
}

// NewRoutineGenerator builds a generator seeded from the clock unless WithSeed is given.
func NewRoutineGenerator(opts ...RoutineGeneratorOption) *RoutineGenerator {
	g := &RoutineGenerator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// SearchResult carries the routines found together with search statistics.
type SearchResult struct {
	Routines []models.Routine
	// ValidSections is the number of preference-valid sections per selected course, in selection order.
	ValidSections []int
	Visited       int
	// Truncated is set when the visit budget ran out or routines beyond the cap were dropped.
	Truncated bool
}

// Generate returns shuffled, conflict-free routines for the selected courses.
func (g *RoutineGenerator) Generate(courses map[string][]models.Section, selected []string, prefs models.Preferences) []models.Routine {
	return g.Search(courses, selected, prefs).Routines
}

// Search runs the backtracking search and shuffles whatever it collected.
func (g *RoutineGenerator) Search(courses map[string][]models.Section, selected []string, prefs models.Preferences) SearchResult {
	result := SearchResult{Routines: []models.Routine{}}
	if len(selected) == 0 {
		return result
	}

	filtered := make([][]*models.Section, len(selected))
	result.ValidSections = make([]int, len(selected))
	feasible := true
	for i, code := range selected {
		sections := courses[code]
		for j := range sections {
			if IsSectionValid(&sections[j], prefs) {
				filtered[i] = append(filtered[i], &sections[j])
			}
		}
		result.ValidSections[i] = len(filtered[i])
		if len(filtered[i]) == 0 {
			feasible = false
		}
	}
	if !feasible {
		return result
	}

	state := &searchState{courses: filtered, maxVisits: g.maxVisits}
	state.backtrack(0, make(models.Routine, 0, len(filtered)))

	result.Routines = g.Shuffle(state.found)
	result.Visited = state.visited
	result.Truncated = state.stopped()
	return result
}

// Shuffle applies a Fisher-Yates permutation to routines in place and returns it.
func (g *RoutineGenerator) Shuffle(routines []models.Routine) []models.Routine {
	for i := len(routines) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		routines[i], routines[j] = routines[j], routines[i]
	}
	return routines
}

type searchState struct {
	courses   [][]*models.Section
	found     []models.Routine
	visited   int
	maxVisits int
	// capped is set once a complete routine had to be discarded because the cap was reached.
	capped    bool
	outOfTime bool
}

func (s *searchState) stopped() bool {
	return s.capped || s.outOfTime
}

func (s *searchState) backtrack(depth int, path models.Routine) {
	if s.stopped() {
		return
	}
	if depth == len(s.courses) {
		if len(s.found) >= MaxRoutineCombinations {
			s.capped = true
			return
		}
		routine := make(models.Routine, len(path))
		copy(routine, path)
		s.found = append(s.found, routine)
		return
	}
	for _, candidate := range s.courses[depth] {
		if s.stopped() {
			return
		}
		if s.maxVisits > 0 && s.visited >= s.maxVisits {
			s.outOfTime = true
			return
		}
		s.visited++
		if conflictsWithRoutine(path, candidate) {
			continue
		}
		s.backtrack(depth+1, append(path, candidate))
	}
}

// IsSectionValid reports whether every meeting of section falls on an allowed
// day and overlaps the allowed window. Sections without meetings are always valid.
func IsSectionValid(section *models.Section, prefs models.Preferences) bool {
	if section == nil {
		return false
	}
	if len(section.Times) == 0 {
		return true
	}
	windowStart, okStart := timetable.ToMinutes(prefs.StartTime)
	windowEnd, okEnd := timetable.ToMinutes(prefs.EndTime)
	for _, meeting := range section.Times {
		start, ok := timetable.ToMinutes(meeting.StartTime)
		if !ok {
			return false
		}
		end, ok := timetable.ToMinutes(meeting.EndTime)
		if !ok {
			return false
		}
		if !okStart || !okEnd {
			return false
		}
		if !prefs.AllowsDay(meeting.Day) {
			return false
		}
		if !(end > windowStart && start < windowEnd) {
			return false
		}
	}
	return true
}

// HasConflict reports whether two sections meet on the same day with
// overlapping half-open intervals. Touching endpoints do not conflict.
func HasConflict(a, b *models.Section) bool {
	if a == nil || b == nil {
		return false
	}
	for _, x := range a.Times {
		for _, y := range b.Times {
			if x.Day != y.Day {
				continue
			}
			xs, ok1 := timetable.ToMinutes(x.StartTime)
			xe, ok2 := timetable.ToMinutes(x.EndTime)
			ys, ok3 := timetable.ToMinutes(y.StartTime)
			ye, ok4 := timetable.ToMinutes(y.EndTime)
			if !ok1 || !ok2 || !ok3 || !ok4 {
				continue
			}
			if max(xs, ys) < min(xe, ye) {
				return true
			}
		}
	}
	return false
}

func conflictsWithRoutine(routine models.Routine, candidate *models.Section) bool {
	for _, placed := range routine {
		if HasConflict(placed, candidate) {
			return true
		}
	}
	return false
}
