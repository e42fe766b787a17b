// Package plan holds the generated training and nutrition plan tree together
// with its schema contract, deep-copy helpers and personalization pass.
package plan

// kind of plan being generated
type Type string

const (
	TypeTraining  Type = "training"
	TypeNutrition Type = "nutrition"
)

// date layout used for startDate and day dates
const DateLayout = "2006-01-02"

type Plan struct {
	Title     string `json:"title" validate:"required"`
	StartDate string `json:"startDate,omitempty"`
	DayCount  int    `json:"dayCount,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Days      []Day  `json:"days" validate:"required,min=1,dive"`
}

type Day struct {
	Date      string     `json:"date,omitempty"`
	Label     string     `json:"label" validate:"required"`
	Focus     string     `json:"focus,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty" validate:"omitempty,dive"`
	Meals     []Meal     `json:"meals,omitempty" validate:"omitempty,dive"`
}

type Exercise struct {
	Name        string `json:"name" validate:"required"`
	Sets        int    `json:"sets" validate:"min=1,max=20"`
	Reps        string `json:"reps" validate:"required"`
	RestSeconds int    `json:"restSeconds" validate:"min=0,max=900"`
	Notes       string `json:"notes,omitempty"`
}

type Meal struct {
	Name         string       `json:"name" validate:"required"` // slot, e.g. "Desayuno"
	Title        string       `json:"title" validate:"required"`
	Calories     int          `json:"calories" validate:"min=0"`
	ProteinG     int          `json:"proteinG" validate:"min=0"`
	CarbsG       int          `json:"carbsG" validate:"min=0"`
	FatG         int          `json:"fatG" validate:"min=0"`
	Ingredients  []Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []string     `json:"instructions,omitempty"`
}

type Ingredient struct {
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity,omitempty"`
}
