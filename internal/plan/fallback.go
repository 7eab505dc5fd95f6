package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/nutrition"
)

// goalNotes are the extra medical-considerations bullets per goal, in
// output order.
var goalNotes = []struct {
	goal  domain.Goal
	lines []string
}{
	{domain.GoalGutHealth, []string{
		"Focus on probiotic-rich foods (yogurt, kefir, fermented vegetables)",
		"Include prebiotic fiber sources (garlic, onions, bananas, oats)",
	}},
	{domain.GoalHeartHealth, []string{
		"Limit sodium intake to less than 2,300mg daily",
		"Increase intake of omega-3 fatty acids (fatty fish, flaxseeds, walnuts)",
	}},
	{domain.GoalWeightLoss, []string{
		"Create a moderate calorie deficit of approximately 500 calories per day",
		"Focus on high protein foods to maintain muscle mass during weight loss",
	}},
	{domain.GoalMuscleGain, []string{
		"Ensure adequate protein intake spread throughout the day",
		"Time protein consumption around workouts",
	}},
}

// Fallback builds the built-in plan for p. The requirements section carries
// the computed targets; the meal plan and grocery list are generic. The
// output always contains "## 7-Day Meal Plan" and "## Grocery List"
// headings.
func Fallback(p domain.UserProfile) domain.PlanDocument {
	t := nutrition.Compute(p)

	var b strings.Builder
	fmt.Fprintf(&b, "# Personalized Nutrition Plan for %d-year-old %s\n\n", p.Age, p.Sex)

	b.WriteString("## Nutritional Requirements\n\n")
	fmt.Fprintf(&b, "Based on your demographics and activity level (%s), here are your nutritional requirements for %s:\n\n",
		p.ActivityLevel, t.Goal)
	fmt.Fprintf(&b, "- **Daily Caloric Needs**: %d calories\n", t.TargetCalories)
	fmt.Fprintf(&b, "- **Protein**: %dg (30%% of total calories)\n", t.ProteinG)
	fmt.Fprintf(&b, "- **Carbohydrates**: %dg (40%% of total calories)\n", t.CarbsG)
	fmt.Fprintf(&b, "- **Fats**: %dg (30%% of total calories)\n", t.FatG)
	fmt.Fprintf(&b, "- **Water**: Minimum %s liters daily\n\n", strconv.FormatFloat(t.WaterLiters, 'f', -1, 64))

	b.WriteString("## Medical Considerations\n\n")
	b.WriteString("Given your health information, here are specific nutritional adjustments:\n\n")
	for _, n := range goalNotes {
		if !p.HasGoal(n.goal) {
			continue
		}
		for _, line := range n.lines {
			b.WriteString("- " + line + "\n")
		}
	}
	b.WriteString(staticConsiderations)
	b.WriteString(staticMealPlan)
	b.WriteString(staticGroceryList)
	b.WriteString(staticClosing)

	return domain.PlanDocument(b.String())
}

const staticConsiderations = `- Include antioxidant-rich foods (berries, leafy greens, nuts)
- Focus on low glycemic index carbohydrates
- Distribute protein intake evenly throughout the day

`

const staticMealPlan = `## 7-Day Meal Plan

### Day 1

**Breakfast**:
- Spinach and mushroom omelet (3 egg whites, 1 whole egg)
- 1/2 cup steel-cut oats with berries
- 1 cup green tea

**Lunch**:
- Grilled chicken breast (5oz)
- Large mixed salad with olive oil dressing
- 1/2 cup quinoa

**Dinner**:
- Baked salmon (5oz)
- Roasted brussels sprouts and sweet potatoes
- Small side salad

**Snacks**:
- Greek yogurt with honey
- Apple with 1 tbsp almond butter

### Day 2-7 (similar pattern with varied protein sources and vegetables)

`

const staticGroceryList = `## Grocery List

### Proteins:
- Chicken breast
- Salmon
- Turkey breast
- Eggs
- Greek yogurt
- Tofu

### Carbohydrates:
- Quinoa
- Steel-cut oats
- Sweet potatoes
- Brown rice
- Ezekiel bread

### Fruits & Vegetables:
- Spinach
- Kale
- Mixed berries
- Apples
- Brussels sprouts
- Bell peppers
- Mushrooms
- Carrots
- Cucumber

### Healthy Fats:
- Olive oil
- Avocados
- Almonds
- Walnuts
- Flaxseeds

### Others:
- Green tea
- Almond milk
- Herbs and spices
- Honey (small amount)

`

const staticClosing = `## Implementation Strategies

- Meal prep on weekends for 3-4 days at a time
- Carry healthy snacks when traveling
- Drink water throughout the day
- Eat slowly and mindfully
- Schedule meals at consistent times
- Listen to your body's hunger cues

## Progress Tracking

- Weigh yourself 1-2 times per week at the same time of day
- Track energy levels and hunger patterns
- Take progress photos every 2 weeks
- Schedule a follow-up assessment in 4 weeks

## Adjustments

This plan may need adjustment based on your progress and how you feel. Stay hydrated throughout the day and listen to your body's hunger and fullness cues.
`
