package display

import (
	"strings"
	"testing"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

func TestTargetsCard(t *testing.T) {
	card := TargetsCard(domain.NutritionTargets{
		BMR: 1780, TDEE: 2759, TargetCalories: 2207,
		ProteinG: 166, CarbsG: 221, FatG: 74,
		WaterLiters: 2.64, Goal: "weight loss",
	})
	for _, want := range []string{"2207 kcal", "166 g", "221 g", "74 g", "2.64 L", "1780.00 kcal", "weight loss"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown("## Grocery List\n\n- Oats\n- Apples\n", 60)
	for _, want := range []string{"Grocery List", "Oats", "Apples"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered markdown missing %q:\n%s", want, out)
		}
	}
}

func TestCentre(t *testing.T) {
	if got := centre("", 80); got != "" {
		t.Fatalf("empty art = %q", got)
	}

	out := centre("ab\nabcd\n", 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "   ") {
			t.Errorf("line %q not padded by 3", l)
		}
	}

	if narrow := centre("abcd", 2); strings.HasPrefix(narrow, " ") {
		t.Fatalf("art wider than terminal should not be padded: %q", narrow)
	}
}

func TestRenderBannerEmbedded(t *testing.T) {
	if strings.TrimSpace(RenderBanner()) == "" {
		t.Fatal("banner is empty")
	}
}

func TestAlertAndNotice(t *testing.T) {
	if got := Alert("error: boom"); !strings.Contains(got, "error: boom") {
		t.Fatalf("Alert = %q", got)
	}
	if got := Notice("using the built-in plan"); !strings.Contains(got, "using the built-in plan") {
		t.Fatalf("Notice = %q", got)
	}
}
