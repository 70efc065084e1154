package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/auth"
	"github.com/kostadinov1/gym-backend/internal/models"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "gymtrack"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), models.User{
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

// handleToken implements the OAuth2 password grant. Form bodies use
// username/password; JSON bodies may use either username or email.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !decodeJSON(w, r, &creds) {
			return
		}
		if creds.Username == "" {
			creds.Username = creds.Email
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid form body")
			return
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	}

	u, err := s.store.GetUserByEmail(r.Context(), models.NormalizeEmail(creds.Username))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.writeError(w, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.HashedPassword, creds.Password) {
		s.opts.Metrics.LoginAttempt("failure")
		writeUnauthorized(w, "Incorrect email or password")
		return
	}

	token, err := s.issuer.Issue(u.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.opts.Metrics.LoginAttempt("success")
	writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// userID returns the caller set by BearerAuth.
func userID(r *http.Request) uuid.UUID {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

// writeError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without leaking the cause.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	var oe *models.OverlapError
	switch {
	case errors.As(err, &ve), errors.As(err, &oe):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrEmailTaken):
		writeDetail(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, models.ErrExerciseNotFound):
		writeDetail(w, http.StatusNotFound, "Exercise not found")
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrSystemExercise):
		writeDetail(w, http.StatusForbidden, "Cannot modify system exercises")
	case errors.Is(err, models.ErrExerciseInUse):
		writeDetail(w, http.StatusConflict, "Exercise is used by routines or logged sets")
	case errors.Is(err, models.ErrSessionIDTaken):
		writeDetail(w, http.StatusConflict, "Session id already in use")
	case errors.Is(err, models.ErrRoutineHasHistory):
		writeDetail(w, http.StatusConflict, "Cannot delete routine with completed sessions. Archive the plan instead.")
	default:
		s.log.Error("request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusBadRequest, "request body is required")
		} else {
			writeDetail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}
	return true
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// parseTime accepts RFC3339 timestamps or YYYY-MM-DD dates (midnight UTC).
// dateOnly reports which form matched.
func parseTime(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is not an RFC3339 timestamp or YYYY-MM-DD date", v)
}

// parseRange reads the required start_date and end_date query parameters as
// the half-open range [start, end). A date-only end includes that whole day.
func parseRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start_date"), q.Get("end_date")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, errors.New("start_date and end_date are required")
	}
	if start, _, err = parseTime(startStr); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	var dateOnly bool
	if end, dateOnly, err = parseTime(endStr); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("end_date must be after start_date")
	}
	return start, end, nil
}
