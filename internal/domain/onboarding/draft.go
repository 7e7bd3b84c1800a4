// Package onboarding implements the jobseeker onboarding wizard: the fixed
// step sequence, per-step validation, the in-progress draft, and the commit
// that turns a draft into a profile patch.
package onboarding

import (
	"slices"
	"strings"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
)

// Step identifies a wizard step.
type Step string

const (
	StepCategory     Step = "category"
	StepWage         Step = "wage"
	StepAvailability Step = "availability"
)

//nolint:gochecknoglobals // the step order is fixed configuration
var steps = []Step{StepCategory, StepWage, StepAvailability}

// Steps returns the wizard steps in order.
func Steps() []Step { return slices.Clone(steps) }

// Index returns the position of s in the step order, or -1.
func (s Step) Index() int { return slices.Index(steps, s) }

// Draft is the in-progress onboarding form, persisted between step transitions.
type Draft struct {
	// Step is where the wizard resumes after a reload.
	Step          Step                 `json:"step"`
	Category      string               `json:"category"`
	Subcategories []string             `json:"subcategories"`
	Vehicle       string               `json:"vehicle,omitempty"`
	Wages         profile.WageBook     `json:"wages"`
	Availability  profile.Availability `json:"availability"`
	Name          string               `json:"name"`
}

// NewDraft returns an empty draft positioned on the first step.
func NewDraft() Draft {
	return Draft{Step: StepCategory, Availability: profile.DefaultAvailability}
}

// SeedFromProfile pre-fills a draft from an existing profile, e.g. one that was
// partially filled before or edited outside onboarding.
func SeedFromProfile(p profile.Profile) Draft {
	d := NewDraft()
	d.Name = p.Name
	if p.Availability.Valid() {
		d.Availability = p.Availability
	}
	js, ok := p.Jobseeker()
	if !ok {
		return d
	}
	if len(js.Categories) > 0 {
		d.Category = js.Categories[0]
	}
	d.Subcategories = slices.Clone(js.Subcategories)
	d.Vehicle = js.Vehicle
	d.Wages = js.Wages.Clone()
	return d
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Subcategories = slices.Clone(d.Subcategories)
	out.Wages = d.Wages.Clone()
	return out
}

// Equal reports deep equality, treating nil and empty subcategory lists alike.
func (d Draft) Equal(o Draft) bool {
	return d.Step == o.Step &&
		d.Category == o.Category &&
		slices.Equal(d.Subcategories, o.Subcategories) &&
		d.Vehicle == o.Vehicle &&
		d.Wages.Equal(o.Wages) &&
		d.Availability == o.Availability &&
		d.Name == o.Name
}

// normalizeSubcategories trims, drops empties and duplicates, keeping first occurrence order.
func normalizeSubcategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
