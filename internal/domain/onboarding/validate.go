package onboarding

import (
	"fmt"
	"strings"
)

// StepError is a recoverable validation failure that blocks forward progress.
type StepError struct {
	Step   Step
	Field  string
	Reason string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step: %s: %s", e.Step, e.Field, e.Reason)
}

func stepErr(step Step, field, reason string) *StepError {
	return &StepError{Step: step, Field: field, Reason: reason}
}

// Validator checks the draft fields owned by one step.
type Validator func(d Draft, c *Catalog) error

//nolint:gochecknoglobals // fixed step → validator table
var validators = map[Step]Validator{
	StepCategory:     ValidateCategory,
	StepWage:         ValidateWage,
	StepAvailability: ValidateAvailability,
}

// ValidateStep runs the validator registered for step.
func ValidateStep(step Step, d Draft, c *Catalog) error {
	v, ok := validators[step]
	if !ok {
		return fmt.Errorf("unknown step %q", step)
	}
	return v(d, c)
}

// ValidateCategory requires a known category, at least one subcategory from
// it, and a vehicle when the category needs one.
func ValidateCategory(d Draft, c *Catalog) error {
	if strings.TrimSpace(d.Category) == "" {
		return stepErr(StepCategory, "category", "is required and cannot be empty")
	}
	cat, ok := c.Category(d.Category)
	if !ok {
		return stepErr(StepCategory, "category", fmt.Sprintf("%q is not offered", d.Category))
	}
	if len(d.Subcategories) == 0 {
		return stepErr(StepCategory, "subcategories", "must select at least one")
	}
	for _, sub := range d.Subcategories {
		if !cat.HasSubcategory(sub) {
			return stepErr(StepCategory, "subcategories", fmt.Sprintf("%q is not part of %s", sub, cat.ID))
		}
	}
	if cat.RequiresVehicle {
		if strings.TrimSpace(d.Vehicle) == "" {
			return stepErr(StepCategory, "vehicle", "is required for "+cat.ID)
		}
		if !c.AcceptsVehicle(d.Vehicle) {
			return stepErr(StepCategory, "vehicle", fmt.Sprintf("%q is not a supported vehicle", d.Vehicle))
		}
	}
	return nil
}

// ValidateWage requires a valid wage entry for every selected subcategory.
func ValidateWage(d Draft, _ *Catalog) error {
	if len(d.Subcategories) == 0 {
		return stepErr(StepWage, "wages", "no subcategories selected")
	}
	for _, sub := range d.Subcategories {
		e, ok := d.Wages.Get(sub)
		if !ok {
			return stepErr(StepWage, "wages."+sub, "is required")
		}
		if err := e.Validate(); err != nil {
			return stepErr(StepWage, "wages."+sub, err.Error())
		}
	}
	return nil
}

// ValidateAvailability passes whenever a status is present; drafts always
// carry the default.
func ValidateAvailability(d Draft, _ *Catalog) error {
	if d.Availability != "" && !d.Availability.Valid() {
		return stepErr(StepAvailability, "availability", "must be one of: available, busy, offline")
	}
	return nil
}
