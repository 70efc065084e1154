package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/kostadinov1/gym-backend/internal/export"
	"github.com/kostadinov1/gym-backend/internal/models"
)

func (s *Server) handleListActiveRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.store.ListActiveRoutines(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routines)
}

func (s *Server) handleStartRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	start, err := s.store.GetRoutineStart(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, start)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var in models.SessionCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	read, err := s.store.FinishSession(r.Context(), in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.opts.Metrics.SessionLogged(read.Status)
	s.log.Info("session logged", "session_id", read.ID, "routine_id", in.RoutineID, "sets", len(in.Sets))
	writeJSON(w, http.StatusCreated, read)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.store.QueryHistory(r.Context(), start, end, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context(), s.now(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.store.ExportSessions(r.Context(), start, end, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := export.WriteSessions(&buf, sessions); err != nil {
		s.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("gymtrack-%s-%s.xlsx",
		start.Format("20060102"), end.AddDate(0, 0, -1).Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := s.store.GetSessionDetail(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.SessionUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := models.ValidateSets(in.Sets); err != nil {
		s.writeError(w, err)
		return
	}
	read, err := s.store.ReplaceSessionSets(r.Context(), id, in.Sets, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, read)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteSession(r.Context(), id, userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
