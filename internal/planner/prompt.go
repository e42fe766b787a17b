package planner

import (
	"fmt"
	"strings"

	"codeberg.org/fitcoach/server/internal/plan"
)

const trainingSchema = `{
  "title": string,
  "notes": string,
  "days": [
    {
      "label": string,
      "focus": string,
      "exercises": [
        {"name": string, "sets": integer 1-20, "reps": string, "restSeconds": integer 0-900, "notes": string}
      ]
    }
  ]
}`

const nutritionSchema = `{
  "title": string,
  "notes": string,
  "days": [
    {
      "label": string,
      "meals": [
        {
          "name": string,
          "title": string,
          "calories": integer,
          "proteinG": integer,
          "carbsG": integer,
          "fatG": integer,
          "ingredients": [{"name": string, "quantity": string}],
          "instructions": [string]
        }
      ]
    }
  ]
}`

// assembles the system and user prompt for a training plan
func buildTrainingPrompt(req plan.TrainingRequest, strict bool) (string, string) {
	var builder strings.Builder

	builder.WriteString("You are a certified strength and conditioning coach writing plans in Spanish.\n\n")
	writeSection(&builder, "OUTPUT CONTRACT")
	builder.WriteString("Answer with one JSON object matching this schema:\n")
	builder.WriteString(trainingSchema)
	builder.WriteString("\n\n")
	builder.WriteString(fmt.Sprintf("The \"days\" array must contain exactly %d entries, one per workout session, labeled \"Día 1\", \"Día 2\" and so on.\n", req.DaysPerWeek))
	builder.WriteString("Do not include dates or rest days; scheduling is handled separately.\n")
	builder.WriteString("Use {name} wherever the athlete's name should appear.\n")
	writeStrictRules(&builder, strict)

	var user strings.Builder
	writeSection(&user, "ATHLETE")
	writeField(&user, "Goal", req.Goal)
	writeField(&user, "Level", req.Level)
	writeField(&user, "Focus", req.Focus)
	writeField(&user, "Sessions", fmt.Sprint(req.DaysPerWeek))
	if req.SessionMinutes > 0 {
		writeField(&user, "Minutes per session", fmt.Sprint(req.SessionMinutes))
	}
	if len(req.Equipment) > 0 {
		writeField(&user, "Equipment", strings.Join(req.Equipment, ", "))
	}
	writeField(&user, "Injuries", req.Injuries)
	if req.Age > 0 {
		writeField(&user, "Age", fmt.Sprint(req.Age))
	}
	writeField(&user, "Sex", req.Sex)
	if req.WeightKg > 0 {
		writeField(&user, "Weight (kg)", fmt.Sprintf("%.1f", req.WeightKg))
	}
	if req.HeightCm > 0 {
		writeField(&user, "Height (cm)", fmt.Sprintf("%.0f", req.HeightCm))
	}

	return builder.String(), user.String()
}

// assembles the system and user prompt for a nutrition plan
func buildNutritionPrompt(req plan.NutritionRequest, strict bool) (string, string) {
	var builder strings.Builder

	builder.WriteString("You are a registered dietitian writing meal plans in Spanish.\n\n")
	writeSection(&builder, "OUTPUT CONTRACT")
	builder.WriteString("Answer with one JSON object matching this schema:\n")
	builder.WriteString(nutritionSchema)
	builder.WriteString("\n\n")
	builder.WriteString(fmt.Sprintf("The \"days\" array must contain exactly %d entries labeled \"Día 1\", \"Día 2\" and so on.\n", req.Days))
	builder.WriteString(fmt.Sprintf("Every day must contain exactly %d meals.\n", req.MealsPerDay))
	builder.WriteString("Use {name} wherever the client's name should appear.\n")
	writeStrictRules(&builder, strict)

	var user strings.Builder
	writeSection(&user, "CLIENT")
	writeField(&user, "Goal", req.Goal)
	writeField(&user, "Diet", req.DietType)
	if req.Calories > 0 {
		writeField(&user, "Daily calories", fmt.Sprint(req.Calories))
	}
	writeField(&user, "Meals per day", fmt.Sprint(req.MealsPerDay))
	writeField(&user, "Days", fmt.Sprint(req.Days))
	if len(req.Allergies) > 0 {
		writeField(&user, "Allergies (never use)", strings.Join(req.Allergies, ", "))
	}
	if len(req.Dislikes) > 0 {
		writeField(&user, "Dislikes (avoid)", strings.Join(req.Dislikes, ", "))
	}

	return builder.String(), user.String()
}

func writeStrictRules(b *strings.Builder, strict bool) {
	if !strict {
		b.WriteString("Return ONLY valid JSON, no markdown or explanations.\n")
		return
	}

	b.WriteString("\n")
	writeSection(b, "STRICT MODE")
	b.WriteString("Your previous answer could not be used. This time:\n")
	b.WriteString("- output a single JSON object and nothing else, no code fences, no prose\n")
	b.WriteString("- include every required field with the exact types shown\n")
	b.WriteString("- match the requested counts exactly\n")
}

func writeSection(b *strings.Builder, title string) {
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString(title)
	b.WriteString("\n═══════════════════════════════════════════════════════════\n\n")
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf("%s: %s\n", name, value))
}
