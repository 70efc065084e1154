// Package importer logs Alpha Progression exports as completed sessions
// through the GymTrack REST API.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/ingest/alpha"
	"github.com/kostadinov1/gym-backend/internal/models"
)

// API is the part of the REST API the importer needs. *Client satisfies it.
type API interface {
	ListRoutines(ctx context.Context) ([]models.RoutineSummary, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, in models.ExerciseCreate) (*models.Exercise, error)
	FinishSession(ctx context.Context, in models.SessionCreate) (*models.SessionRead, error)
}

var _ API = (*Client)(nil)

// Options controls how sessions are matched and whether anything is written.
type Options struct {
	// Routine, when set, receives every session regardless of its title.
	Routine string
	// Location is the zone the export's wall-clock times are read in.
	Location *time.Location
	// DryRun parses and resolves without writing to the server or the state db.
	DryRun bool
}

// Stats tracks import progress.
type Stats struct {
	FilesTotal       int
	FilesImported    int
	FilesSkipped     int
	FilesErrored     int
	SessionsLogged   int
	SessionsSkipped  int
	SetsLogged       int
	ExercisesCreated int
}

// Importer logs parsed exports through an API, remembering progress in a
// StateDB.
type Importer struct {
	api   API
	state *StateDB
	opts  Options
	log   *slog.Logger
	stats Stats

	routines  map[string]uuid.UUID
	exercises map[string]uuid.UUID
}

// New creates an Importer.
func New(api API, state *StateDB, opts Options, log *slog.Logger) *Importer {
	return &Importer{api: api, state: state, opts: opts, log: log}
}

// Run imports every export in paths. Directories contribute their *.csv files.
// A file that fails is logged and counted; it is retried on the next run,
// skipping the sessions it had already logged.
func (imp *Importer) Run(ctx context.Context, paths []string) (*Stats, error) {
	files, err := expand(paths)
	if err != nil {
		return &imp.stats, err
	}
	if err := imp.loadCatalog(ctx); err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		imp.stats.FilesTotal++
		if err := imp.importFile(ctx, f); err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			imp.stats.FilesErrored++
		}
	}
	return &imp.stats, nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.csv"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func (imp *Importer) loadCatalog(ctx context.Context) error {
	routines, err := imp.api.ListRoutines(ctx)
	if err != nil {
		return err
	}
	imp.routines = make(map[string]uuid.UUID, len(routines))
	for _, r := range routines {
		imp.routines[alpha.NameKey(r.Name)] = r.ID
	}

	exercises, err := imp.api.ListExercises(ctx)
	if err != nil {
		return err
	}
	imp.exercises = make(map[string]uuid.UUID, len(exercises))
	for _, e := range exercises {
		key := alpha.NameKey(e.Name)
		// custom exercises shadow system exercises of the same name
		if _, ok := imp.exercises[key]; !ok || e.IsCustom {
			imp.exercises[key] = e.ID
		}
	}

	imp.log.Info("loaded catalog", "routines", len(imp.routines), "exercises", len(imp.exercises))
	return nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	ref, err := Ref(path)
	if err != nil {
		return err
	}
	done, err := imp.state.IsImported(ctx, ref)
	if err != nil {
		return err
	}
	if done {
		imp.stats.FilesSkipped++
		return nil
	}

	f, err := os.Open(ref.Path)
	if err != nil {
		return err
	}
	sessions, err := alpha.Parse(f, imp.opts.Location)
	f.Close()
	if err != nil {
		return err
	}

	// Resolve everything before the first write so a missing routine leaves
	// the file untouched. Sessions logged from an earlier export are not
	// resolved again; their routine may be gone by now.
	payloads := make([]payload, 0, len(sessions))
	for _, s := range sessions {
		key := SessionKey(s)
		st, err := imp.state.LookupSession(ctx, key)
		if err != nil {
			return err
		}
		if st.Logged {
			imp.stats.SessionsSkipped++
			continue
		}
		routineID, err := imp.routineFor(s)
		if err != nil {
			return err
		}
		for _, name := range s.ExerciseNames() {
			if err := imp.ensureExercise(ctx, name); err != nil {
				return err
			}
		}
		in, err := s.ToSessionCreate(routineID, imp.exercises)
		if err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("session %s: %w", s.Start.Format(time.DateTime), err)
		}
		payloads = append(payloads, payload{key: key, in: in})
	}

	for _, p := range payloads {
		logged, err := imp.logSession(ctx, p)
		if err != nil {
			return err
		}
		if !logged {
			imp.stats.SessionsSkipped++
			continue
		}
		imp.stats.SessionsLogged++
		imp.stats.SetsLogged += len(p.in.Sets)
	}

	if imp.opts.DryRun {
		return nil
	}
	if err := imp.state.MarkImported(ctx, ref, len(payloads)); err != nil {
		return err
	}
	imp.stats.FilesImported++
	return nil
}

type payload struct {
	key string
	in  models.SessionCreate
}

// SessionKey identifies an exported session across files. Exports are
// cumulative, so the same session shows up in every later export.
func SessionKey(s alpha.Session) string {
	return s.Start.UTC().Format(time.RFC3339) + "|" + alpha.NameKey(s.Title)
}

// logSession sends one session under the ID reserved for it. It reports
// false when the state db already has the session logged.
func (imp *Importer) logSession(ctx context.Context, p payload) (bool, error) {
	in := p.in
	start := in.StartTime.Format(time.DateTime)

	if imp.opts.DryRun {
		imp.log.Info("dry-run: would log session", "routine_id", in.RoutineID, "start", start, "sets", len(in.Sets))
		return true, nil
	}

	st, err := imp.state.ReserveSession(ctx, p.key)
	if err != nil {
		return false, err
	}
	if st.Logged {
		imp.log.Debug("session already logged", "start", start, "id", st.ID)
		return false, nil
	}

	in.ID = st.ID
	read, err := imp.api.FinishSession(ctx, in)
	if err != nil {
		return false, fmt.Errorf("session %s: %w", start, err)
	}
	if err := imp.state.MarkSessionLogged(ctx, p.key); err != nil {
		return false, err
	}
	imp.log.Info("logged session", "id", read.ID, "start", start, "sets", len(in.Sets))
	return true, nil
}

func (imp *Importer) routineFor(s alpha.Session) (uuid.UUID, error) {
	name := s.RoutineName()
	if imp.opts.Routine != "" {
		name = imp.opts.Routine
	}
	id, ok := imp.routines[alpha.NameKey(name)]
	if !ok {
		return uuid.Nil, fmt.Errorf("session %s: no routine named %q in an active plan",
			s.Start.Format(time.DateTime), name)
	}
	return id, nil
}

// ensureExercise creates a custom exercise for a name the catalog lacks.
func (imp *Importer) ensureExercise(ctx context.Context, name string) error {
	key := alpha.NameKey(name)
	if _, ok := imp.exercises[key]; ok {
		return nil
	}

	if imp.opts.DryRun {
		imp.log.Info("dry-run: would create exercise", "name", name)
		imp.exercises[key] = uuid.New()
		imp.stats.ExercisesCreated++
		return nil
	}

	ex, err := imp.api.CreateExercise(ctx, models.ExerciseCreate{Name: name})
	if err != nil {
		return err
	}
	imp.log.Info("created exercise", "name", ex.Name, "id", ex.ID)
	imp.exercises[key] = ex.ID
	imp.stats.ExercisesCreated++
	return nil
}
