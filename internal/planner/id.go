package planner

import "github.com/google/uuid"

// generateID creates a random UUID for a plan.
func generateID() string {
	return uuid.NewString()
}
