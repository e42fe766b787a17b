package plan

// returns a copy sharing no slices with p
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}

	out := *p
	out.Days = make([]Day, len(p.Days))

	for i, d := range p.Days {
		out.Days[i] = d.Clone()
	}

	return &out
}

// returns a copy of d with its own exercise and meal slices
func (d Day) Clone() Day {
	out := d

	if d.Exercises != nil {
		out.Exercises = append([]Exercise(nil), d.Exercises...)
	}

	if d.Meals != nil {
		out.Meals = make([]Meal, len(d.Meals))
		for i, m := range d.Meals {
			out.Meals[i] = m.Clone()
		}
	}

	return out
}

// returns a copy of m with its own ingredient and instruction slices
func (m Meal) Clone() Meal {
	out := m

	if m.Ingredients != nil {
		out.Ingredients = append([]Ingredient(nil), m.Ingredients...)
	}

	if m.Instructions != nil {
		out.Instructions = append([]string(nil), m.Instructions...)
	}

	return out
}
