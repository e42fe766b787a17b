package plan

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrSchema marks model output that does not satisfy the plan contract
var ErrSchema = errors.New("plan does not match schema")

var validate = validator.New()

// checks the shared contract plus the training-specific requirement that
// every day carries at least one exercise and no meals
func ValidateTraining(p *Plan) error {
	if err := validateCommon(p); err != nil {
		return err
	}

	for i, d := range p.Days {
		if len(d.Exercises) == 0 {
			return fmt.Errorf("%w: day %d has no exercises", ErrSchema, i+1)
		}

		if len(d.Meals) > 0 {
			return fmt.Errorf("%w: day %d has meals in a training plan", ErrSchema, i+1)
		}
	}

	return nil
}

// checks the shared contract plus that every day carries at least one meal
func ValidateNutrition(p *Plan) error {
	if err := validateCommon(p); err != nil {
		return err
	}

	for i, d := range p.Days {
		if len(d.Meals) == 0 {
			return fmt.Errorf("%w: day %d has no meals", ErrSchema, i+1)
		}

		if len(d.Exercises) > 0 {
			return fmt.Errorf("%w: day %d has exercises in a nutrition plan", ErrSchema, i+1)
		}
	}

	return nil
}

func validateCommon(p *Plan) error {
	if p == nil {
		return fmt.Errorf("%w: empty plan", ErrSchema)
	}

	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return nil
}
