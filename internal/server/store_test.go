package server

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
)

// memStore is an in-memory Store for handler tests. It applies the same
// model rules as the PostgreSQL implementation.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	exercises map[uuid.UUID]*models.Exercise
	plans     map[uuid.UUID]*models.Plan
	routines  map[uuid.UUID]*models.Routine
	targets   map[uuid.UUID]*models.RoutineExercise
	sessions  map[uuid.UUID]*models.Session
	sets      map[uuid.UUID][]models.SessionSet
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*models.User{},
		exercises: map[uuid.UUID]*models.Exercise{},
		plans:     map[uuid.UUID]*models.Plan{},
		routines:  map[uuid.UUID]*models.Routine{},
		targets:   map[uuid.UUID]*models.RoutineExercise{},
		sessions:  map[uuid.UUID]*models.Session{},
		sets:      map[uuid.UUID][]models.SessionSet{},
	}
}

// addSystemExercise seeds a built-in exercise.
func (m *memStore) addSystemExercise(name string, increment float64) models.Exercise {
	ex := models.Exercise{ID: uuid.New(), Name: name, DefaultIncrement: increment, Unit: "kg"}
	m.exercises[ex.ID] = &ex
	return ex
}

func (m *memStore) CreateUser(_ context.Context, u models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, models.ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = &u
	out := u
	return &out, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) GetUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memStore) ListExercises(_ context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Exercise{}
	for _, ex := range m.exercises {
		if ex.VisibleTo(userID) {
			out = append(out, *ex)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateExercise(_ context.Context, in models.ExerciseCreate, userID uuid.UUID) (*models.Exercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner := userID
	ex := models.Exercise{
		ID:               uuid.New(),
		UserID:           &owner,
		Name:             in.Name,
		DefaultIncrement: *in.DefaultIncrement,
		Unit:             in.Unit,
		IsCustom:         true,
	}
	m.exercises[ex.ID] = &ex
	out := ex
	return &out, nil
}

func (m *memStore) visibleExercise(id, userID uuid.UUID) (*models.Exercise, error) {
	ex, ok := m.exercises[id]
	if !ok || !ex.VisibleTo(userID) {
		return nil, models.ErrExerciseNotFound
	}
	return ex, nil
}

func (m *memStore) UpdateExercise(_ context.Context, exerciseID uuid.UUID, in models.ExerciseUpdate, userID uuid.UUID) (*models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.visibleExercise(exerciseID, userID)
	if err != nil {
		return nil, err
	}
	if err := ex.CheckModifiable(userID); err != nil {
		return nil, err
	}
	in.Apply(ex)
	out := *ex
	return &out, nil
}

func (m *memStore) DeleteExercise(_ context.Context, exerciseID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.visibleExercise(exerciseID, userID)
	if err != nil {
		return err
	}
	if err := ex.CheckModifiable(userID); err != nil {
		return err
	}
	for _, t := range m.targets {
		if t.ExerciseID == exerciseID {
			return models.ErrExerciseInUse
		}
	}
	for _, sets := range m.sets {
		for _, s := range sets {
			if s.ExerciseID == exerciseID {
				return models.ErrExerciseInUse
			}
		}
	}
	delete(m.exercises, exerciseID)
	return nil
}

func (m *memStore) userPlans(userID uuid.UUID, includeArchived bool) []models.Plan {
	out := []models.Plan{}
	for _, p := range m.plans {
		if p.UserID == userID && (includeArchived || p.IsActive) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

func (m *memStore) ListPlans(_ context.Context, includeArchived bool, userID uuid.UUID) ([]models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userPlans(userID, includeArchived), nil
}

func (m *memStore) CreatePlan(_ context.Context, in models.PlanCreate, userID uuid.UUID) (*models.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Plan{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          in.Name,
		Description:   in.Description,
		DurationWeeks: in.DurationWeeks,
		StartDate:     in.StartDate,
		EndDate:       models.PlanEndDate(in.StartDate, in.DurationWeeks),
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	if err := models.CheckOverlap(m.userPlans(userID, false), p.StartDate, p.EndDate, uuid.Nil); err != nil {
		return nil, err
	}
	m.plans[p.ID] = &p
	out := p
	return &out, nil
}

func (m *memStore) ownedPlan(planID, userID uuid.UUID) (*models.Plan, error) {
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ownedRoutine(routineID, userID uuid.UUID) (*models.Routine, error) {
	r, ok := m.routines[routineID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if _, err := m.ownedPlan(r.PlanID, userID); err != nil {
		return nil, err
	}
	return r, nil
}

func (m *memStore) GetPlanDetail(_ context.Context, planID, userID uuid.UUID) (*models.PlanDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.ownedPlan(planID, userID)
	if err != nil {
		return nil, err
	}
	detail := &models.PlanDetail{Plan: *p, Routines: []models.RoutineDetail{}}
	for _, r := range m.routines {
		if r.PlanID != planID {
			continue
		}
		rd := models.RoutineDetail{Routine: *r, Exercises: []models.RoutineExercise{}}
		for _, t := range m.targets {
			if t.RoutineID == r.ID {
				rd.Exercises = append(rd.Exercises, *t)
			}
		}
		sort.Slice(rd.Exercises, func(i, j int) bool { return rd.Exercises[i].OrderIndex < rd.Exercises[j].OrderIndex })
		detail.Routines = append(detail.Routines, rd)
	}
	sort.Slice(detail.Routines, func(i, j int) bool { return detail.Routines[i].Name < detail.Routines[j].Name })
	return detail, nil
}

func (m *memStore) UpdatePlan(_ context.Context, planID uuid.UUID, in models.PlanUpdate, userID uuid.UUID) (*models.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.ownedPlan(planID, userID)
	if err != nil {
		return nil, err
	}
	if in.Reactivates(*p) {
		if err := models.CheckOverlap(m.userPlans(userID, false), p.StartDate, p.EndDate, p.ID); err != nil {
			return nil, err
		}
	}
	in.Apply(p)
	out := *p
	return &out, nil
}

func (m *memStore) routineHasCompleted(routineID uuid.UUID) bool {
	for _, s := range m.sessions {
		if s.RoutineID == routineID && s.Status == models.StatusCompleted {
			return true
		}
	}
	return false
}

func (m *memStore) deleteRoutineCascade(routineID uuid.UUID) {
	for id, t := range m.targets {
		if t.RoutineID == routineID {
			delete(m.targets, id)
		}
	}
	for id, s := range m.sessions {
		if s.RoutineID == routineID {
			delete(m.sessions, id)
			delete(m.sets, id)
		}
	}
	delete(m.routines, routineID)
}

func (m *memStore) DeletePlan(_ context.Context, planID, userID uuid.UUID) (models.DeleteOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.ownedPlan(planID, userID)
	if err != nil {
		return "", err
	}
	completed := false
	for _, r := range m.routines {
		if r.PlanID == planID && m.routineHasCompleted(r.ID) {
			completed = true
		}
	}
	outcome := models.DeletePolicy(completed)
	if outcome == models.PlanArchived {
		p.IsActive = false
		return outcome, nil
	}
	for id, r := range m.routines {
		if r.PlanID == planID {
			m.deleteRoutineCascade(id)
		}
	}
	delete(m.plans, planID)
	return outcome, nil
}

func (m *memStore) AddRoutine(_ context.Context, planID uuid.UUID, in models.RoutineCreate, userID uuid.UUID) (*models.Routine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ownedPlan(planID, userID); err != nil {
		return nil, err
	}
	r := models.Routine{ID: uuid.New(), PlanID: planID, Name: in.Name, DayOfWeek: in.DayOfWeek, RoutineType: in.RoutineType}
	m.routines[r.ID] = &r
	out := r
	return &out, nil
}

func (m *memStore) DeleteRoutine(_ context.Context, routineID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ownedRoutine(routineID, userID); err != nil {
		return err
	}
	if m.routineHasCompleted(routineID) {
		return models.ErrRoutineHasHistory
	}
	m.deleteRoutineCascade(routineID)
	return nil
}

func (m *memStore) AddRoutineExercise(_ context.Context, routineID uuid.UUID, in models.RoutineExerciseCreate, userID uuid.UUID) (*models.RoutineExercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ownedRoutine(routineID, userID); err != nil {
		return nil, err
	}
	ex, err := m.visibleExercise(in.ExerciseID, userID)
	if err != nil {
		return nil, err
	}
	t := in.Resolve(routineID, *ex)
	m.targets[t.ID] = &t
	out := t
	return &out, nil
}

func (m *memStore) DeleteRoutineExercise(_ context.Context, targetID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[targetID]
	if !ok {
		return models.ErrNotFound
	}
	if _, err := m.ownedRoutine(t.RoutineID, userID); err != nil {
		return err
	}
	delete(m.targets, targetID)
	return nil
}

func (m *memStore) ListActiveRoutines(_ context.Context, userID uuid.UUID) ([]models.RoutineSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RoutineSummary{}
	for _, r := range m.routines {
		p := m.plans[r.PlanID]
		if p.UserID != userID || !p.IsActive {
			continue
		}
		rs := models.RoutineSummary{ID: r.ID, PlanID: r.PlanID, Name: r.Name, DayOfWeek: r.DayOfWeek}
		for _, s := range m.sessions {
			if s.RoutineID != r.ID || s.Status != models.StatusCompleted {
				continue
			}
			end := s.StartTime
			if s.EndTime != nil {
				end = *s.EndTime
			}
			if rs.LastCompletedAt == nil || end.After(*rs.LastCompletedAt) {
				rs.LastCompletedAt = &end
			}
		}
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetRoutineStart(_ context.Context, routineID, userID uuid.UUID) (*models.RoutineStart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.ownedRoutine(routineID, userID)
	if err != nil {
		return nil, err
	}
	var targets []models.RoutineExercise
	for _, t := range m.targets {
		if t.RoutineID == routineID {
			targets = append(targets, *t)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].OrderIndex < targets[j].OrderIndex })

	start := &models.RoutineStart{RoutineID: r.ID, Name: r.Name, Exercises: []models.ExercisePreview{}}
	for _, t := range targets {
		start.Exercises = append(start.Exercises, models.BuildPreview(t, m.lastSets(routineID, t.ExerciseID, userID)))
	}
	return start, nil
}

func (m *memStore) lastSets(routineID, exerciseID, userID uuid.UUID) []models.SessionSet {
	var latest *models.Session
	var latestSets []models.SessionSet
	for _, s := range m.sessions {
		if s.RoutineID != routineID || s.UserID != userID || s.Status != models.StatusCompleted {
			continue
		}
		var sets []models.SessionSet
		for _, set := range m.sets[s.ID] {
			if set.ExerciseID == exerciseID {
				sets = append(sets, set)
			}
		}
		if len(sets) > 0 && (latest == nil || s.StartTime.After(latest.StartTime)) {
			latest, latestSets = s, sets
		}
	}
	return latestSets
}

func (m *memStore) writeSets(sessionID uuid.UUID, in []models.SessionSetInput, userID uuid.UUID) error {
	for _, id := range models.ExerciseIDs(in) {
		if _, err := m.visibleExercise(id, userID); err != nil {
			return err
		}
	}
	sets := make([]models.SessionSet, 0, len(in))
	for _, s := range in {
		sets = append(sets, models.SessionSet{
			ID: uuid.New(), SessionID: sessionID, ExerciseID: s.ExerciseID,
			SetNumber: s.SetNumber, Reps: s.Reps, Weight: s.Weight, IsCompleted: s.IsCompleted,
		})
	}
	m.sets[sessionID] = sets
	return nil
}

func (m *memStore) FinishSession(_ context.Context, in models.SessionCreate, userID uuid.UUID) (*models.SessionRead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.sessions[in.ID]; ok && in.ID != uuid.Nil {
		if prev.UserID != userID {
			return nil, models.ErrSessionIDTaken
		}
		return &models.SessionRead{ID: prev.ID, Status: prev.Status}, nil
	}
	if _, err := m.ownedRoutine(in.RoutineID, userID); err != nil {
		return nil, err
	}
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	end := in.EndTime
	s := models.Session{ID: id, UserID: userID, RoutineID: in.RoutineID, StartTime: in.StartTime, EndTime: &end, Status: in.Status}
	if err := m.writeSets(s.ID, in.Sets, userID); err != nil {
		return nil, err
	}
	m.sessions[s.ID] = &s
	return &models.SessionRead{ID: s.ID, Status: s.Status}, nil
}

func (m *memStore) ownedSession(sessionID, userID uuid.UUID) (*models.Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (m *memStore) detail(s *models.Session) models.SessionDetail {
	var sets []models.SessionSetDetail
	for _, set := range m.sets[s.ID] {
		sets = append(sets, models.SessionSetDetail{
			ExerciseID: set.ExerciseID, ExerciseName: m.exercises[set.ExerciseID].Name,
			SetNumber: set.SetNumber, Reps: set.Reps, Weight: set.Weight, IsCompleted: set.IsCompleted,
		})
	}
	sort.Slice(sets, func(i, j int) bool {
		if c := strings.Compare(sets[i].ExerciseName, sets[j].ExerciseName); c != 0 {
			return c < 0
		}
		return sets[i].SetNumber < sets[j].SetNumber
	})
	if sets == nil {
		sets = []models.SessionSetDetail{}
	}
	return models.NewSessionDetail(*s, m.routines[s.RoutineID].Name, sets)
}

func (m *memStore) sessionsIn(start, end time.Time, userID uuid.UUID) []*models.Session {
	var out []*models.Session
	for _, s := range m.sessions {
		if s.UserID == userID && !s.StartTime.Before(start) && s.StartTime.Before(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

func (m *memStore) QueryHistory(_ context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SessionSummary{}
	for _, s := range m.sessionsIn(start, end, userID) {
		out = append(out, models.SessionSummary{ID: s.ID, RoutineName: m.routines[s.RoutineID].Name, Date: s.StartTime, Status: s.Status})
	}
	return out, nil
}

func (m *memStore) ExportSessions(_ context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SessionDetail{}
	for _, s := range m.sessionsIn(start, end, userID) {
		out = append(out, m.detail(s))
	}
	return out, nil
}

func (m *memStore) GetStats(_ context.Context, now time.Time, userID uuid.UUID) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.UserStats{}
	month := models.StartOfMonth(now)
	for _, s := range m.sessions {
		if s.UserID != userID || s.Status != models.StatusCompleted {
			continue
		}
		stats.TotalWorkouts++
		if !s.StartTime.Before(month) {
			stats.WorkoutsThisMonth++
		}
		last := s.StartTime
		if s.EndTime != nil {
			last = *s.EndTime
		}
		if stats.LastWorkoutDate == nil || last.After(*stats.LastWorkoutDate) {
			stats.LastWorkoutDate = &last
		}
	}
	return stats, nil
}

func (m *memStore) GetSessionDetail(_ context.Context, sessionID, userID uuid.UUID) (*models.SessionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	d := m.detail(s)
	return &d, nil
}

func (m *memStore) ReplaceSessionSets(_ context.Context, sessionID uuid.UUID, sets []models.SessionSetInput, userID uuid.UUID) (*models.SessionRead, error) {
	if err := models.ValidateSets(sets); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ownedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := m.writeSets(sessionID, sets, userID); err != nil {
		return nil, err
	}
	return &models.SessionRead{ID: s.ID, Status: s.Status}, nil
}

func (m *memStore) DeleteSession(_ context.Context, sessionID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ownedSession(sessionID, userID); err != nil {
		return err
	}
	delete(m.sessions, sessionID)
	delete(m.sets, sessionID)
	return nil
}
