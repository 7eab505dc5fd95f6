package domain

import "time"

// NutritionTargets are the daily calorie, macro and water targets derived
// from a profile.
type NutritionTargets struct {
	BMR            float64 `json:"bmr"`
	TDEE           int     `json:"tdee"`
	TargetCalories int     `json:"targetCalories"`
	ProteinG       int     `json:"proteinG"`
	CarbsG         int     `json:"carbsG"`
	FatG           int     `json:"fatG"`
	WaterLiters    float64 `json:"waterLiters"`
	// Goal describes the calorie adjustment applied: "weight loss",
	// "muscle gain" or "maintenance".
	Goal string `json:"goal"`
}

// PlanDocument is a markdown nutrition plan. No structure is assumed
// beyond heading markers.
type PlanDocument string

// ParsedSections are the three display sections cut from one PlanDocument.
// They overlap: Nutrition is always the whole document.
type ParsedSections struct {
	Nutrition string `json:"nutritionSection"`
	Meal      string `json:"mealSection"`
	Grocery   string `json:"grocerySection"`
}

// PlanStatus tracks a stored plan's lifecycle.
type PlanStatus string

const (
	PlanProcessing PlanStatus = "processing"
	PlanCompleted  PlanStatus = "completed"
)

// PlanSource says where a plan's markdown came from.
type PlanSource string

const (
	SourceService  PlanSource = "service"
	SourceFallback PlanSource = "fallback"
)

// PlanRecord is a persisted plan.
type PlanRecord struct {
	ID      string
	UserID  string
	Goal    string
	Status  PlanStatus
	Source  PlanSource
	Profile UserProfile
	Content PlanDocument

	// ServiceStatus is the status reported for the finished plan, e.g.
	// "success" from the plan service or "success-fallback".
	ServiceStatus string

	CreatedAt time.Time
	UpdatedAt time.Time
}
