// Package templates holds hand-written plans for request combinations common
// enough that a model call would only reproduce them.
package templates

import (
	"fmt"

	"codeberg.org/fitcoach/server/internal/plan"
)

type trainingKey struct {
	focus string
	days  int
}

type session struct {
	focus     string
	exercises []plan.Exercise
}

var (
	push = session{"Empuje", []plan.Exercise{
		{Name: "Press banca", Sets: 4, Reps: "6-8", RestSeconds: 120},
		{Name: "Press militar", Sets: 3, Reps: "8-10", RestSeconds: 90},
		{Name: "Fondos en paralelas", Sets: 3, Reps: "8-12", RestSeconds: 90},
		{Name: "Extensión de tríceps en polea", Sets: 3, Reps: "12-15", RestSeconds: 60},
	}}
	pull = session{"Tirón", []plan.Exercise{
		{Name: "Dominadas", Sets: 4, Reps: "6-8", RestSeconds: 120},
		{Name: "Remo con barra", Sets: 3, Reps: "8-10", RestSeconds: 90},
		{Name: "Face pull", Sets: 3, Reps: "12-15", RestSeconds: 60},
		{Name: "Curl de bíceps", Sets: 3, Reps: "10-12", RestSeconds: 60},
	}}
	legs = session{"Pierna", []plan.Exercise{
		{Name: "Sentadilla", Sets: 4, Reps: "6-8", RestSeconds: 150},
		{Name: "Peso muerto rumano", Sets: 3, Reps: "8-10", RestSeconds: 120},
		{Name: "Zancadas", Sets: 3, Reps: "10-12", RestSeconds: 90},
		{Name: "Elevación de talones", Sets: 4, Reps: "12-15", RestSeconds: 60},
	}}
	upper = session{"Tren superior", []plan.Exercise{
		{Name: "Press banca", Sets: 4, Reps: "6-8", RestSeconds: 120},
		{Name: "Remo con barra", Sets: 4, Reps: "6-8", RestSeconds: 120},
		{Name: "Press militar", Sets: 3, Reps: "8-10", RestSeconds: 90},
		{Name: "Dominadas", Sets: 3, Reps: "8-10", RestSeconds: 90},
	}}
	lower = session{"Tren inferior", []plan.Exercise{
		{Name: "Sentadilla", Sets: 4, Reps: "6-8", RestSeconds: 150},
		{Name: "Peso muerto", Sets: 3, Reps: "5", RestSeconds: 180},
		{Name: "Prensa", Sets: 3, Reps: "10-12", RestSeconds: 90},
		{Name: "Curl femoral", Sets: 3, Reps: "10-12", RestSeconds: 60},
	}}
	fullA = session{"Cuerpo completo A", []plan.Exercise{
		{Name: "Sentadilla", Sets: 3, Reps: "8-10", RestSeconds: 120},
		{Name: "Press banca", Sets: 3, Reps: "8-10", RestSeconds: 120},
		{Name: "Remo con mancuerna", Sets: 3, Reps: "10-12", RestSeconds: 90},
		{Name: "Plancha", Sets: 3, Reps: "30-45 s", RestSeconds: 60},
	}}
	fullB = session{"Cuerpo completo B", []plan.Exercise{
		{Name: "Peso muerto rumano", Sets: 3, Reps: "8-10", RestSeconds: 120},
		{Name: "Press militar", Sets: 3, Reps: "8-10", RestSeconds: 90},
		{Name: "Jalón al pecho", Sets: 3, Reps: "10-12", RestSeconds: 90},
		{Name: "Zancadas", Sets: 3, Reps: "10-12", RestSeconds: 90},
	}}
)

var trainingTemplates = map[trainingKey][]session{
	{"ppl", 3}:         {push, pull, legs},
	{"ppl", 4}:         {push, pull, legs, upper},
	{"ppl", 6}:         {push, pull, legs, push, pull, legs},
	{"fullbody", 2}:    {fullA, fullB},
	{"fullbody", 3}:    {fullA, fullB, fullA},
	{"upper_lower", 4}: {upper, lower, upper, lower},
}

// returns the template plan for req, un-dated, with one day per session.
// req must already be normalized. requests that mention injuries never match.
func Training(req plan.TrainingRequest) (*plan.Plan, bool) {
	if req.Injuries != "" {
		return nil, false
	}

	sessions, ok := trainingTemplates[trainingKey{req.Focus, req.DaysPerWeek}]
	if !ok {
		return nil, false
	}

	p := &plan.Plan{
		Title: fmt.Sprintf("Plan %s de {name}", focusTitle(req.Focus)),
		Notes: "Calienta 10 minutos antes de cada sesión.",
		Days:  make([]plan.Day, len(sessions)),
	}

	for i, s := range sessions {
		p.Days[i] = plan.Day{
			Label:     fmt.Sprintf("Día %d", i+1),
			Focus:     s.focus,
			Exercises: append([]plan.Exercise(nil), s.exercises...),
		}
	}

	return p, true
}

func focusTitle(focus string) string {
	switch focus {
	case "ppl":
		return "empuje/tirón/pierna"
	case "upper_lower":
		return "torso/pierna"
	default:
		return "cuerpo completo"
	}
}
