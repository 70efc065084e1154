package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kostadinov1/gym-backend/internal/models"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	includeArchived := false
	if v := r.URL.Query().Get("include_archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "include_archived must be a boolean")
			return
		}
		includeArchived = b
	}
	plans, err := s.store.ListPlans(r.Context(), includeArchived, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// planCreateRequest accepts start_date as a plain date or an RFC3339 timestamp.
type planCreateRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	StartDate     string  `json:"start_date"`
	DurationWeeks int     `json:"duration_weeks"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := models.PlanCreate{
		Name:          req.Name,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
	}
	if req.StartDate != "" {
		start, _, err := parseTime(req.StartDate)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "start_date: "+err.Error())
			return
		}
		y, m, d := start.Date()
		in.StartDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.store.CreatePlan(r.Context(), in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("plan created", "plan_id", p.ID, "user_id", p.UserID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := s.store.GetPlanDetail(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.PlanUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.store.UpdatePlan(r.Context(), id, in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	outcome, err := s.store.DeletePlan(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.opts.Metrics.PlanDeleted(string(outcome))
	s.log.Info("plan removed", "plan_id", id, "outcome", outcome)
	writeJSON(w, http.StatusOK, map[string]string{"message": outcome.Message()})
}

func (s *Server) handleAddRoutine(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.RoutineCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	routine, err := s.store.AddRoutine(r.Context(), planID, in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, routine)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRoutine(r.Context(), id, userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddRoutineExercise(w http.ResponseWriter, r *http.Request) {
	routineID, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.RoutineExerciseCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	target, err := s.store.AddRoutineExercise(r.Context(), routineID, in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, target)
}

func (s *Server) handleDeleteRoutineExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRoutineExercise(r.Context(), id, userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
