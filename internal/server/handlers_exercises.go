package server

import (
	"net/http"

	"github.com/kostadinov1/gym-backend/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.ListExercises(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var in models.ExerciseCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	ex, err := s.store.CreateExercise(r.Context(), in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.ExerciseUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	ex, err := s.store.UpdateExercise(r.Context(), id, in, userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteExercise(r.Context(), id, userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
