package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/nutrition"
	"github.com/hammamikhairi/nutriplan/internal/plan"
	"github.com/hammamikhairi/nutriplan/internal/planner"
)

// maxBody caps request bodies; profiles and visits are small.
const maxBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	p.Sex = domain.ParseSex(string(p.Sex))
	writeJSON(w, http.StatusOK, nutrition.Compute(p))
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planner.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Profile != nil {
		req.Profile.Sex = domain.ParseSex(string(req.Profile.Sex))
	}

	res, err := s.planner.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	res, err := s.planner.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := plan.ParseSectionKind(vars["section"])
	if !ok {
		s.writeError(w, badRequest(fmt.Errorf("unknown section %q", vars["section"])))
		return
	}
	format, err := plan.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}

	res, err := s.planner.Load(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	exp := plan.ExportSection(res.Sections, kind, format)
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(exp.Body))
}

func (s *Server) handleUserPlans(w http.ResponseWriter, r *http.Request) {
	results, err := s.planner.History(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTrackVisit(w http.ResponseWriter, r *http.Request) {
	var v domain.Visit
	if err := decode(w, r, &v); err != nil {
		s.writeError(w, err)
		return
	}
	if v.UserAgent == "" {
		v.UserAgent = r.UserAgent()
	}
	if v.Referrer == "" {
		v.Referrer = r.Referer()
	}
	v.IPAddress = clientIP(r)

	if _, err := s.tracker.Track(r.Context(), v); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	entry, err := s.waitlist.Join(r.Context(), body.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// requestError marks a malformed request.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, domain.ErrMissingProfile),
		errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
