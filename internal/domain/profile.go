// Package domain defines the core types and interfaces for nutriplan.
// All other packages depend on domain; domain depends on nothing.
package domain

import "strings"

// Sex is the biological sex category collected by the intake form. It only
// selects the BMR formula branch.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

// ParseSex accepts any casing of the three form values. Unknown input maps
// to SexOther.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale
	case "female", "f":
		return SexFemale
	default:
		return SexOther
	}
}

// ActivityLevel is one of five ordered activity categories.
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "Sedentary"
	ActivityLightlyActive    ActivityLevel = "Lightly Active"
	ActivityModeratelyActive ActivityLevel = "Moderately Active"
	ActivityVeryActive       ActivityLevel = "Very Active"
	ActivityExtremelyActive  ActivityLevel = "Extremely Active"
)

// ActivityLevels lists the categories from least to most active.
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLightlyActive,
	ActivityModeratelyActive,
	ActivityVeryActive,
	ActivityExtremelyActive,
}

// Goal is a canonical nutrition goal tag.
type Goal string

const (
	GoalWeightLoss          Goal = "Weight Loss"
	GoalWeightGain          Goal = "Weight Gain"
	GoalMaintenance         Goal = "Maintenance"
	GoalMuscleGain          Goal = "Muscle Gain"
	GoalBetterEnergy        Goal = "Better Energy"
	GoalAthleticPerformance Goal = "Improved Athletic Performance"
	GoalDiseaseManagement   Goal = "Disease Management"
	GoalGeneralHealth       Goal = "General Health"
	GoalGutHealth           Goal = "Gut Health"
	GoalHeartHealth         Goal = "Heart Health"
)

// goalNames maps normalized tags to goals. Several call sites historically
// used different labels for the same goal; all of them land here.
var goalNames = map[string]Goal{
	"weight loss":                   GoalWeightLoss,
	"weight gain":                   GoalWeightGain,
	"maintenance":                   GoalMaintenance,
	"muscle gain":                   GoalMuscleGain,
	"muscle building":               GoalMuscleGain,
	"better energy":                 GoalBetterEnergy,
	"improved athletic performance": GoalAthleticPerformance,
	"athletic performance":          GoalAthleticPerformance,
	"disease management":            GoalDiseaseManagement,
	"general health":                GoalGeneralHealth,
	"gut health":                    GoalGutHealth,
	"heart health":                  GoalHeartHealth,
}

// ParseGoal converts a goal tag to a Goal. Matching ignores case and treats
// "-" and "_" as spaces, so "weight-loss" and "Weight Loss" are the same.
// Returns ok=false for unrecognized tags.
func ParseGoal(tag string) (Goal, bool) {
	norm := strings.ToLower(strings.TrimSpace(tag))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	g, ok := goalNames[norm]
	return g, ok
}

// UserProfile is the record produced by the intake form.
type UserProfile struct {
	Age           int           `json:"age" yaml:"age"`
	Sex           Sex           `json:"gender" yaml:"gender"`
	HeightCm      float64       `json:"height" yaml:"height"`
	WeightKg      float64       `json:"weight" yaml:"weight"`
	ActivityLevel ActivityLevel `json:"activityLevel" yaml:"activity_level"`
	Goals         []string      `json:"goals" yaml:"goals"`

	MedicalConditions string `json:"medicalConditions,omitempty" yaml:"medical_conditions,omitempty"`
	Medications       string `json:"medications,omitempty" yaml:"medications,omitempty"`
	Allergies         string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	FoodPreferences   string `json:"foodPreferences,omitempty" yaml:"food_preferences,omitempty"`
	CookingAbility    string `json:"cookingAbility,omitempty" yaml:"cooking_ability,omitempty"`
	Budget            string `json:"budget,omitempty" yaml:"budget,omitempty"`
	CulturalFactors   string `json:"culturalFactors,omitempty" yaml:"cultural_factors,omitempty"`
	PlanDuration      int    `json:"planDuration,omitempty" yaml:"plan_duration,omitempty"`
}

// HasGoal reports whether any of the profile's tags resolves to g.
func (p UserProfile) HasGoal(g Goal) bool {
	for _, tag := range p.Goals {
		if got, ok := ParseGoal(tag); ok && got == g {
			return true
		}
	}
	return false
}
