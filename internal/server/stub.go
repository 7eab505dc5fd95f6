package server

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hammamikhairi/nutriplan/internal/logger"
	"github.com/hammamikhairi/nutriplan/internal/planapi"
)

// SamplePlan is the fixed plan the stub service returns.
//
//go:embed sample_plan.md
var SamplePlan string

// ParseShape maps "plain", "raw" and "tasks" onto a response shape.
func ParseShape(s string) (planapi.Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "string":
		return planapi.ShapePlainString, nil
	case "raw":
		return planapi.ShapeRawField, nil
	case "tasks":
		return planapi.ShapeTaskArray, nil
	default:
		return 0, fmt.Errorf("server: unknown response shape %q", s)
	}
}

// Stub stands in for the external plan service during local development.
type Stub struct {
	shape planapi.Shape
	plan  string
	log   *logger.Logger
}

// NewStub creates a stub that answers every request with SamplePlan
// wrapped in the given shape.
func NewStub(shape planapi.Shape, log *logger.Logger) *Stub {
	return &Stub{shape: shape, plan: SamplePlan, log: log.With("stub")}
}

// Handler returns the stub's routes.
func (st *Stub) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(planapi.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	r.HandleFunc(planapi.GeneratePath, st.handleGenerate).Methods(http.MethodPost)
	return allowAll().Handler(requestLogger(st.log, r))
}

// ListenAndServe serves the stub until ctx is cancelled.
func (st *Stub) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return serve(ctx, ln, &http.Server{
		Handler:           st.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, shutdownTimeout, st.log)
}

func (st *Stub) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req planapi.PlanRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	st.log.Info("plan request for %s (goal=%s)", req.UserID, req.Goal)

	writeJSON(w, http.StatusOK, map[string]any{
		"plan":   st.wrap(),
		"status": "success",
	})
}

func (st *Stub) wrap() any {
	switch st.shape {
	case planapi.ShapeTaskArray:
		return map[string]any{
			"raw": st.plan,
			"tasks_output": []map[string]string{
				{"raw": "Nutritional requirements analysis."},
				{"raw": "Medical considerations."},
				{"raw": st.plan},
			},
		}
	case planapi.ShapeRawField:
		return map[string]string{"raw": st.plan}
	default:
		return st.plan
	}
}
