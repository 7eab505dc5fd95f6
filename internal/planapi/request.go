package planapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// DefaultPlanDuration is used when a profile has no plan duration.
const DefaultPlanDuration = 7

// UserInfo is the flattened profile the plan service expects. Every field
// is a string.
type UserInfo struct {
	Age               string `json:"age"`
	Gender            string `json:"gender"`
	Height            string `json:"height"`
	Weight            string `json:"weight"`
	ActivityLevel     string `json:"activity_level"`
	Goals             string `json:"goals"`
	MedicalConditions string `json:"medical_conditions"`
	Medications       string `json:"medications"`
	Allergies         string `json:"allergies"`
	FoodPreferences   string `json:"food_preferences"`
	CookingAbility    string `json:"cooking_ability"`
	Budget            string `json:"budget"`
	CulturalFactors   string `json:"cultural_factors"`
}

// PlanRequest is the body of POST /api/generate-plan.
type PlanRequest struct {
	UserID              string    `json:"user_id"`
	Goal                string    `json:"goal"`
	DietaryRestrictions string    `json:"dietary_restrictions"`
	Allergies           string    `json:"allergies"`
	AdditionalNotes     string    `json:"additional_notes"`
	UserInfo            *UserInfo `json:"user_info,omitempty"`
}

// NewRequest maps a profile onto the service schema. Empty free-text
// fields get the defaults the service prompt was written against.
func NewRequest(p domain.UserProfile, userID string) PlanRequest {
	goal := "general-health"
	if len(p.Goals) > 0 {
		goal = p.Goals[0]
	}
	duration := p.PlanDuration
	if duration <= 0 {
		duration = DefaultPlanDuration
	}

	return PlanRequest{
		UserID:              userID,
		Goal:                goal,
		DietaryRestrictions: p.FoodPreferences,
		Allergies:           p.Allergies,
		AdditionalNotes:     fmt.Sprintf("Plan Duration: %d days", duration),
		UserInfo: &UserInfo{
			Age:               strconv.Itoa(p.Age),
			Gender:            string(p.Sex),
			Height:            formatNumber(p.HeightCm),
			Weight:            formatNumber(p.WeightKg),
			ActivityLevel:     string(p.ActivityLevel),
			Goals:             strings.Join(p.Goals, ", "),
			MedicalConditions: orDefault(p.MedicalConditions, "None"),
			Medications:       orDefault(p.Medications, "None"),
			Allergies:         orDefault(p.Allergies, "None"),
			FoodPreferences:   orDefault(p.FoodPreferences, "No specific preferences"),
			CookingAbility:    p.CookingAbility,
			Budget:            p.Budget,
			CulturalFactors:   orDefault(p.CulturalFactors, "None specified"),
		},
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
