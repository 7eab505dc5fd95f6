package planapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// Shape identifies where in the response envelope the plan text was found.
type Shape int

const (
	// ShapeTaskArray: plan.tasks_output[2].raw (the third agent's output).
	ShapeTaskArray Shape = iota
	// ShapeRawField: plan.raw.
	ShapeRawField
	// ShapePlainString: plan is the markdown itself.
	ShapePlainString
)

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeTaskArray:
		return "task_array"
	case ShapeRawField:
		return "raw_field"
	case ShapePlainString:
		return "plain_string"
	default:
		return "unknown"
	}
}

// planTaskIndex is the task whose output is the final diet plan.
const planTaskIndex = 2

// Payload is an unwrapped plan service response.
type Payload struct {
	Shape  Shape
	Plan   domain.PlanDocument
	Status string
}

// envelope is the top-level response. Plan is decoded lazily because its
// type depends on the backend version.
type envelope struct {
	Plan   json.RawMessage `json:"plan"`
	Status string          `json:"status"`
}

type taskOutput struct {
	Raw string `json:"raw"`
}

type crewResult struct {
	TasksOutput []taskOutput `json:"tasks_output"`
	Raw         string       `json:"raw"`
}

// Unwrap extracts the plan text from a response body. Shapes are tried in
// order: task array, raw field, plain string. The first present one wins;
// when none match the error wraps domain.ErrUnrecognizedShape.
func Unwrap(body []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Payload{}, fmt.Errorf("planapi: decode envelope: %w: %v", domain.ErrUnrecognizedShape, err)
	}
	status := env.Status
	if status == "" {
		status = "success"
	}

	raw := bytes.TrimSpace(env.Plan)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Payload{}, fmt.Errorf("planapi: %w: no plan field", domain.ErrUnrecognizedShape)
	}

	switch raw[0] {
	case '{':
		var crew crewResult
		if err := json.Unmarshal(raw, &crew); err != nil {
			return Payload{}, fmt.Errorf("planapi: decode plan object: %w: %v", domain.ErrUnrecognizedShape, err)
		}
		if len(crew.TasksOutput) > planTaskIndex {
			return Payload{Shape: ShapeTaskArray, Plan: domain.PlanDocument(crew.TasksOutput[planTaskIndex].Raw), Status: status}, nil
		}
		if crew.Raw != "" {
			return Payload{Shape: ShapeRawField, Plan: domain.PlanDocument(crew.Raw), Status: status}, nil
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Payload{}, fmt.Errorf("planapi: decode plan string: %w: %v", domain.ErrUnrecognizedShape, err)
		}
		if s != "" {
			return Payload{Shape: ShapePlainString, Plan: domain.PlanDocument(s), Status: status}, nil
		}
	}

	return Payload{}, fmt.Errorf("planapi: %w", domain.ErrUnrecognizedShape)
}
