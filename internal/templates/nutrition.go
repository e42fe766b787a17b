package templates

import (
	"fmt"

	"codeberg.org/fitcoach/server/internal/plan"
)

type nutritionKey struct {
	goal  string
	meals int
}

func meal(slot, title string, kcal, protein, carbs, fat int, ingredients ...string) plan.Meal {
	m := plan.Meal{
		Name:         slot,
		Title:        title,
		Calories:     kcal,
		ProteinG:     protein,
		CarbsG:       carbs,
		FatG:         fat,
		Instructions: []string{"Preparar y servir."},
	}

	for _, name := range ingredients {
		m.Ingredients = append(m.Ingredients, plan.Ingredient{Name: name})
	}

	return m
}

var (
	dayLight3 = []plan.Meal{
		meal("Desayuno", "Yogur con avena y frutos rojos", 350, 25, 45, 8, "yogur griego", "avena", "frutos rojos"),
		meal("Comida", "Pollo a la plancha con verduras", 550, 45, 40, 18, "pechuga de pollo", "calabacín", "arroz integral"),
		meal("Cena", "Merluza al horno con ensalada", 450, 38, 20, 20, "merluza", "lechuga", "tomate", "aceite de oliva"),
	}
	dayLight3b = []plan.Meal{
		meal("Desayuno", "Tostadas con huevo", 380, 22, 40, 14, "pan integral", "huevo", "tomate"),
		meal("Comida", "Lentejas estofadas", 520, 30, 70, 10, "lentejas", "zanahoria", "cebolla"),
		meal("Cena", "Tortilla francesa con espinacas", 420, 30, 10, 26, "huevo", "espinacas"),
	}
	dayBulk3 = []plan.Meal{
		meal("Desayuno", "Avena con plátano y crema de cacahuete", 700, 30, 90, 24, "avena", "plátano", "crema de cacahuete", "leche"),
		meal("Comida", "Arroz con ternera", 900, 55, 110, 24, "arroz", "ternera", "pimiento"),
		meal("Cena", "Pasta con atún", 800, 48, 100, 20, "pasta", "atún", "tomate triturado"),
	}
	dayBulk3b = []plan.Meal{
		meal("Desayuno", "Tortitas de avena con miel", 720, 35, 95, 20, "avena", "huevo", "miel"),
		meal("Comida", "Pollo al curry con arroz", 880, 55, 105, 22, "pechuga de pollo", "arroz basmati", "curry"),
		meal("Cena", "Salmón con patata asada", 820, 45, 70, 36, "salmón", "patata"),
	}
	snack = meal("Merienda", "Fruta con frutos secos", 250, 6, 25, 14, "manzana", "nueces")
)

func withSnack(meals []plan.Meal) []plan.Meal {
	out := make([]plan.Meal, 0, len(meals)+1)
	out = append(out, meals[:2]...)
	out = append(out, snack)
	return append(out, meals[2:]...)
}

var nutritionTemplates = map[nutritionKey][][]plan.Meal{
	{"lose_weight", 3}: {dayLight3, dayLight3b},
	{"lose_weight", 4}: {withSnack(dayLight3), withSnack(dayLight3b)},
	{"maintain", 3}:    {dayLight3b, dayBulk3},
	{"maintain", 4}:    {withSnack(dayLight3b), withSnack(dayBulk3)},
	{"gain_muscle", 3}: {dayBulk3, dayBulk3b},
	{"gain_muscle", 4}: {withSnack(dayBulk3), withSnack(dayBulk3b)},
}

// returns a short rotation of template days for req. the caller resamples it
// to the requested window. requests with restrictions never match.
func Nutrition(req plan.NutritionRequest) (*plan.Plan, bool) {
	if len(req.Allergies) > 0 || len(req.Dislikes) > 0 {
		return nil, false
	}

	if req.DietType != "" && req.DietType != "omnivore" {
		return nil, false
	}

	rotation, ok := nutritionTemplates[nutritionKey{req.Goal, req.MealsPerDay}]
	if !ok {
		return nil, false
	}

	p := &plan.Plan{
		Title: "Plan de alimentación de {name}",
		Days:  make([]plan.Day, len(rotation)),
	}

	for i, meals := range rotation {
		day := plan.Day{Label: fmt.Sprintf("Día %d", i+1), Meals: meals}
		p.Days[i] = day.Clone()
	}

	return p, true
}
