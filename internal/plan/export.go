package plan

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// SectionKind names one of the three display sections.
type SectionKind string

const (
	SectionNutrition SectionKind = "nutrition"
	SectionMeal      SectionKind = "meal"
	SectionGrocery   SectionKind = "grocery"
)

// Sections lists the kinds in display order.
var Sections = []SectionKind{SectionNutrition, SectionMeal, SectionGrocery}

var baseNames = map[SectionKind]string{
	SectionNutrition: "my_nutrition_plan",
	SectionMeal:      "meal-plan",
	SectionGrocery:   "grocery-list",
}

// ParseSectionKind accepts the kind names plus "meals", "groceries" and
// "shopping".
func ParseSectionKind(s string) (SectionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nutrition", "plan":
		return SectionNutrition, true
	case "meal", "meals", "meal-plan":
		return SectionMeal, true
	case "grocery", "groceries", "shopping", "grocery-list":
		return SectionGrocery, true
	default:
		return "", false
	}
}

// Get returns the section of the given kind.
func Get(s domain.ParsedSections, kind SectionKind) string {
	switch kind {
	case SectionMeal:
		return s.Meal
	case SectionGrocery:
		return s.Grocery
	default:
		return s.Nutrition
	}
}

// Format is a download format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat maps "md", "markdown", "txt" and "text" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("plan: unknown format %q", s)
	}
}

// Export is a download payload for one section.
type Export struct {
	FileName    string
	ContentType string
	Body        string
}

// ExportSection renders a section for download. The body is the section
// text verbatim in both formats; only the extension and content type
// differ.
func ExportSection(s domain.ParsedSections, kind SectionKind, f Format) Export {
	body := Get(s, kind)
	name := baseNames[kind]
	if name == "" {
		name = baseNames[SectionNutrition]
	}

	if f == FormatText {
		return Export{FileName: name + ".txt", ContentType: "text/plain; charset=utf-8", Body: body}
	}
	return Export{FileName: name + ".md", ContentType: "text/markdown; charset=utf-8", Body: body}
}
