// Package nutrition derives daily calorie, macro and water targets from a
// user profile using the Mifflin-St Jeor equation.
//
// Inputs are not validated. A negative height or a zero age produce odd
// but finite numbers, never an error; callers that need stricter input
// handling must check the profile themselves.
package nutrition

import (
	"math"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// DefaultMultiplier is used for unknown or missing activity levels.
const DefaultMultiplier = 1.2

var multipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:        1.2,
	domain.ActivityLightlyActive:    1.375,
	domain.ActivityModeratelyActive: 1.55,
	domain.ActivityVeryActive:       1.725,
	domain.ActivityExtremelyActive:  1.9,
}

// Energy split of the target calories and energy density per gram.
const (
	proteinShare = 0.30
	carbShare    = 0.40
	fatShare     = 0.30

	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9

	waterLitersPerKg = 0.033

	weightLossFactor = 0.8
	muscleGainFactor = 1.1
)

// Goal descriptions reported in NutritionTargets.Goal.
const (
	DescWeightLoss  = "weight loss"
	DescMuscleGain  = "muscle gain"
	DescMaintenance = "maintenance"
)

// Compute returns the targets for p. It is pure and recomputed on every
// call.
func Compute(p domain.UserProfile) domain.NutritionTargets {
	bmr := BMR(p)
	tdee := TDEE(bmr, p.ActivityLevel)
	target, desc := AdjustForGoals(tdee, p)
	protein, carbs, fat := Macros(target)

	return domain.NutritionTargets{
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: target,
		ProteinG:       protein,
		CarbsG:         carbs,
		FatG:           fat,
		WaterLiters:    Water(p.WeightKg),
		Goal:           desc,
	}
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day. Only the
// male branch is distinct; Female and Other share the -161 constant.
func BMR(p domain.UserProfile) float64 {
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if domain.ParseSex(string(p.Sex)) == domain.SexMale {
		return base + 5
	}
	return base - 161
}

// Multiplier returns the activity factor for level, or DefaultMultiplier.
func Multiplier(level domain.ActivityLevel) float64 {
	if m, ok := multipliers[level]; ok {
		return m
	}
	return DefaultMultiplier
}

// TDEE scales bmr by the activity factor and rounds to whole kcal.
func TDEE(bmr float64, level domain.ActivityLevel) int {
	return round(bmr * Multiplier(level))
}

// AdjustForGoals applies the first matching goal adjustment: weight loss
// wins over muscle gain, anything else is maintenance.
func AdjustForGoals(tdee int, p domain.UserProfile) (int, string) {
	switch {
	case p.HasGoal(domain.GoalWeightLoss):
		return round(float64(tdee) * weightLossFactor), DescWeightLoss
	case p.HasGoal(domain.GoalMuscleGain):
		return round(float64(tdee) * muscleGainFactor), DescMuscleGain
	default:
		return tdee, DescMaintenance
	}
}

// Macros splits target kcal into protein, carb and fat grams. Each macro is
// rounded on its own, so the grams can miss the target energy by a few
// kcal.
func Macros(target int) (protein, carbs, fat int) {
	t := float64(target)
	protein = round(t * proteinShare / kcalPerGramProtein)
	carbs = round(t * carbShare / kcalPerGramCarb)
	fat = round(t * fatShare / kcalPerGramFat)
	return protein, carbs, fat
}

// Water is the minimum daily water intake in liters, to 2 decimals.
func Water(weightKg float64) float64 {
	return float64(round(weightKg*waterLitersPerKg*100)) / 100
}

// round rounds half toward positive infinity, so -2.5 becomes -2 and 2.5
// becomes 3. math.Round would give -3 for the former.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
