package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportCSV = `"Pull · Day 2 · Week 3";"2026-03-10 18:05 h";"0:58 hr"
"1. Deadlift · Barbell · 5 reps";"WU1 · 60 kg · 5 reps"
#;KG;REPS;RIR
1;140;5;2
2;140;5;1
"2. Meadows Row · Barbell · 10 reps"
#;KG;REPS;RIR
1;40;10;1

"Pull · Day 2 · Week 4";"2026-03-17 18:10 h";"1:01 hr"
"1. Deadlift · Barbell · 5 reps"
#;KG;REPS;RIR
1;142,5;5;1
`

const laterSession = `
"Pull · Day 2 · Week 5";"2026-03-24 18:00 h";"1:00 hr"
"1. Deadlift · Barbell · 5 reps"
#;KG;REPS;RIR
1;145;5;1
`

// fakeAPI records writes in memory. Like the server, it stores a session ID
// once and answers a resend with the stored session.
type fakeAPI struct {
	routines  []models.RoutineSummary
	exercises []models.Exercise
	created   []string
	finished  []models.SessionCreate
	stored    map[uuid.UUID]models.SessionCreate

	calls int
	// failCall makes the nth FinishSession call fail. With failAfterStore the
	// session is stored first, as when a reply is lost after commit.
	failCall       int
	failAfterStore bool
}

func (f *fakeAPI) ListRoutines(context.Context) ([]models.RoutineSummary, error) {
	return f.routines, nil
}

func (f *fakeAPI) ListExercises(context.Context) ([]models.Exercise, error) {
	return f.exercises, nil
}

func (f *fakeAPI) CreateExercise(_ context.Context, in models.ExerciseCreate) (*models.Exercise, error) {
	f.created = append(f.created, in.Name)
	ex := models.Exercise{ID: uuid.New(), Name: in.Name, IsCustom: true}
	f.exercises = append(f.exercises, ex)
	return &ex, nil
}

func (f *fakeAPI) FinishSession(_ context.Context, in models.SessionCreate) (*models.SessionRead, error) {
	f.calls++
	failing := f.calls == f.failCall
	if failing && !f.failAfterStore {
		return nil, &StatusError{Status: http.StatusBadGateway}
	}
	if f.stored == nil {
		f.stored = map[uuid.UUID]models.SessionCreate{}
	}
	if _, ok := f.stored[in.ID]; !ok || in.ID == uuid.Nil {
		f.stored[in.ID] = in
		f.finished = append(f.finished, in)
	}
	if failing {
		return nil, &StatusError{Status: http.StatusBadGateway}
	}
	return &models.SessionRead{ID: in.ID, Status: in.Status}, nil
}

// startsLogged counts the stored sessions per start time.
func (f *fakeAPI) startsLogged() map[time.Time]int {
	out := map[time.Time]int{}
	for _, in := range f.finished {
		out[in.StartTime.UTC()]++
	}
	return out
}

type fixture struct {
	api        *fakeAPI
	state      *StateDB
	dir        string
	pullID     uuid.UUID
	backID     uuid.UUID
	deadliftID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state, err := OpenStateDB(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })

	fx := &fixture{
		state:      state,
		dir:        t.TempDir(),
		pullID:     uuid.New(),
		backID:     uuid.New(),
		deadliftID: uuid.New(),
	}
	fx.api = &fakeAPI{
		routines: []models.RoutineSummary{
			{ID: fx.pullID, Name: "Pull"},
			{ID: fx.backID, Name: "Back Day"},
		},
		exercises: []models.Exercise{{ID: fx.deadliftID, Name: "Deadlift"}},
	}
	return fx
}

func (fx *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(fx.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (fx *fixture) run(t *testing.T, opts Options, paths ...string) *Stats {
	t.Helper()
	imp := New(fx.api, fx.state, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	stats, err := imp.Run(context.Background(), paths)
	require.NoError(t, err)
	return stats
}

// TestImportLogsSessions covers matching, exercise creation and re-run skipping.
func TestImportLogsSessions(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "export.csv", exportCSV)
	fx.write(t, "notes.txt", "ignored")

	stats := fx.run(t, Options{}, fx.dir)
	assert.Equal(t, 1, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesImported)
	assert.Equal(t, 2, stats.SessionsLogged)
	assert.Equal(t, 4, stats.SetsLogged)
	assert.Equal(t, 1, stats.ExercisesCreated)
	assert.Equal(t, []string{"Meadows Row"}, fx.api.created)

	require.Len(t, fx.api.finished, 2)
	first := fx.api.finished[0]
	assert.Equal(t, fx.pullID, first.RoutineID)
	assert.Equal(t, models.StatusCompleted, first.Status)
	assert.WithinDuration(t, time.Date(2026, 3, 10, 19, 3, 0, 0, time.UTC), first.EndTime, 0)
	require.Len(t, first.Sets, 3, "warm-up must be skipped")
	assert.Equal(t, fx.deadliftID, first.Sets[0].ExerciseID)
	assert.Equal(t, 142.5, fx.api.finished[1].Sets[0].Weight)

	assert.NotEqual(t, fx.api.finished[0].ID, fx.api.finished[1].ID)

	again := fx.run(t, Options{}, fx.dir)
	assert.Equal(t, 1, again.FilesSkipped)
	assert.Equal(t, 0, again.SessionsLogged)
	assert.Len(t, fx.api.finished, 2)
}

// TestImportChangedFile verifies a newer export only logs its new sessions.
func TestImportChangedFile(t *testing.T) {
	fx := newFixture(t)
	path := fx.write(t, "export.csv", exportCSV)
	fx.run(t, Options{}, path)

	fx.write(t, "export.csv", exportCSV+laterSession)
	stats := fx.run(t, Options{}, path)
	assert.Equal(t, 1, stats.FilesImported)
	assert.Equal(t, 1, stats.SessionsLogged)
	assert.Equal(t, 2, stats.SessionsSkipped)
	require.Len(t, fx.api.finished, 3)
	assert.Equal(t, time.Date(2026, 3, 24, 18, 0, 0, 0, time.UTC), fx.api.finished[2].StartTime.UTC())

	// the same sessions in a second file are not logged again
	other := fx.write(t, "export-copy.csv", exportCSV+laterSession)
	stats = fx.run(t, Options{}, other)
	assert.Equal(t, 0, stats.SessionsLogged)
	assert.Equal(t, 3, stats.SessionsSkipped)
	assert.Len(t, fx.api.finished, 3)
}

// TestImportResumesAfterFailure verifies a re-run after a failed session
// sends only the sessions that were not logged.
func TestImportResumesAfterFailure(t *testing.T) {
	for _, afterStore := range []bool{false, true} {
		name := "rejected"
		if afterStore {
			name = "reply lost"
		}
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t)
			fx.api.failCall = 2
			fx.api.failAfterStore = afterStore
			path := fx.write(t, "export.csv", exportCSV)

			stats := fx.run(t, Options{}, path)
			assert.Equal(t, 1, stats.FilesErrored)
			assert.Equal(t, 1, stats.SessionsLogged)

			stats = fx.run(t, Options{}, path)
			assert.Equal(t, 1, stats.FilesImported)
			assert.Equal(t, 1, stats.SessionsLogged)
			assert.Equal(t, 1, stats.SessionsSkipped)

			assert.Equal(t, map[time.Time]int{
				time.Date(2026, 3, 10, 18, 5, 0, 0, time.UTC):  1,
				time.Date(2026, 3, 17, 18, 10, 0, 0, time.UTC): 1,
			}, fx.api.startsLogged())
			assert.Equal(t, 3, fx.api.calls)
		})
	}
}

// TestSessionState verifies reserved IDs are stable until a session is logged.
func TestSessionState(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	st, err := fx.state.LookupSession(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, SessionState{}, st)

	first, err := fx.state.ReserveSession(ctx, "k")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.Logged)

	again, err := fx.state.ReserveSession(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	require.NoError(t, fx.state.MarkSessionLogged(ctx, "k"))
	st, err = fx.state.LookupSession(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, SessionState{ID: first.ID, Logged: true}, st)
}

// TestImportUnknownRoutine verifies nothing is written when a routine is missing.
func TestImportUnknownRoutine(t *testing.T) {
	fx := newFixture(t)
	fx.api.routines = fx.api.routines[1:]
	path := fx.write(t, "export.csv", exportCSV)

	stats := fx.run(t, Options{}, path)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Empty(t, fx.api.finished)

	ref, err := Ref(path)
	require.NoError(t, err)
	done, err := fx.state.IsImported(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, done, "failed file must be retried")
}

// TestImportForcedRoutine verifies the routine override ignores titles.
func TestImportForcedRoutine(t *testing.T) {
	fx := newFixture(t)
	path := fx.write(t, "export.csv", exportCSV)

	fx.run(t, Options{Routine: "back day"}, path)
	require.Len(t, fx.api.finished, 2)
	for _, in := range fx.api.finished {
		assert.Equal(t, fx.backID, in.RoutineID)
	}
}

// TestImportDryRun verifies a dry run performs no writes.
func TestImportDryRun(t *testing.T) {
	fx := newFixture(t)
	path := fx.write(t, "export.csv", exportCSV)

	stats := fx.run(t, Options{DryRun: true}, path)
	assert.Equal(t, 2, stats.SessionsLogged)
	assert.Equal(t, 1, stats.ExercisesCreated)
	assert.Empty(t, fx.api.created)
	assert.Empty(t, fx.api.finished)

	ref, err := Ref(path)
	require.NoError(t, err)
	done, err := fx.state.IsImported(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, done)

	stats = fx.run(t, Options{}, path)
	assert.Equal(t, 2, stats.SessionsLogged, "a dry run reserves nothing")
}

// TestImportMissingPath verifies a bad argument aborts the run.
func TestImportMissingPath(t *testing.T) {
	fx := newFixture(t)
	imp := New(fx.api, fx.state, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := imp.Run(context.Background(), []string{filepath.Join(fx.dir, "nope.csv")})
	assert.Error(t, err)
}
