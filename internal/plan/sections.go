// Package plan cuts markdown nutrition plans into display sections and
// builds the local fallback plan used when the plan service is down.
package plan

import (
	"regexp"
	"strings"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// Placeholders returned for sections that come out empty.
const (
	NutritionPlaceholder = "# Nutritional Requirements\n\nNo nutrition data found. Please try regenerating the plan."
	MealPlaceholder      = "# 7-Day Meal Plan\n\nNo meal plan found. Please try regenerating the plan."
	GroceryPlaceholder   = "# Grocery List\n\nNo grocery list found. Please try regenerating the plan."
)

// Heading markers may sit anywhere in the text, not only at line start.
var (
	mealStart    = regexp.MustCompile(`(?i)(?:##|###)\s*(?:Meal Plan|7-Day Meal Plan|Day 1|Breakfast|Daily Meals)`)
	mealEnd      = regexp.MustCompile(`(?i)(?:##|###)\s*(?:Grocery|Shopping)`)
	groceryStart = regexp.MustCompile(`(?i)(?:##|###)\s*(?:Grocery List|Shopping List)`)
	anyHeading   = regexp.MustCompile(`##`)
)

// Sectionize splits md into nutrition, meal and grocery sections. It never
// fails: missing structure falls back to the whole document, and an empty
// section becomes its placeholder. Sections overlap; the nutrition section
// is always the entire input.
func Sectionize(md string) domain.ParsedSections {
	meal, ok := cut(md, mealStart, mealEnd)
	if !ok {
		meal = md
	}
	grocery, ok := cut(md, groceryStart, anyHeading)
	if !ok {
		grocery = md
	}

	return domain.ParsedSections{
		Nutrition: orPlaceholder(md, NutritionPlaceholder),
		Meal:      orPlaceholder(meal, MealPlaceholder),
		Grocery:   orPlaceholder(grocery, GroceryPlaceholder),
	}
}

// cut returns the text from the first start match up to the first end
// match after it, or to the end of md when no end follows.
func cut(md string, start, end *regexp.Regexp) (string, bool) {
	loc := start.FindStringIndex(md)
	if loc == nil {
		return "", false
	}
	if e := end.FindStringIndex(md[loc[1]:]); e != nil {
		return md[loc[0] : loc[1]+e[0]], true
	}
	return md[loc[0]:], true
}

func orPlaceholder(s, placeholder string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return placeholder
}
