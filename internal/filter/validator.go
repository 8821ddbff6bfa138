package filter

import "github.com/andeantech/ventas-bff/model"

// Validator evaluates the rule list against a draft.
type Validator struct {
	rules []Rule
}

// NewValidator creates a Validator with the standard rule set.
func NewValidator() *Validator {
	return &Validator{rules: Rules()}
}

// Validate runs every rule and returns the collected errors in rule order.
// An empty result means the draft is submittable.
func (v *Validator) Validate(d *model.FilterDraft) []model.FieldError {
	var errs []model.FieldError
	for _, r := range v.rules {
		if fe := r.Check(d); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// FailedRules returns the names of the rules a draft violates. Used for
// metrics labels; the error list itself is what clients see.
func (v *Validator) FailedRules(d *model.FilterDraft) []string {
	var names []string
	for _, r := range v.rules {
		if r.Check(d) != nil {
			names = append(names, r.Name)
		}
	}
	return names
}
