// Package profile holds the durable user profile, its role-specific details,
// and the pure rules derived from it (completeness and wage aggregation).
package profile

import (
	"slices"
	"strings"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
)

// Availability is the jobseeker's current work status.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOffline   Availability = "offline"
)

// DefaultAvailability is used whenever no explicit status was chosen.
const DefaultAvailability = AvailabilityAvailable

// Valid reports whether the availability is supported.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline:
		return true
	default:
		return false
	}
}

// ParseAvailability normalizes an availability string and reports whether it is supported.
func ParseAvailability(value string) (Availability, bool) {
	a := Availability(strings.ToLower(strings.TrimSpace(value)))
	if a.Valid() {
		return a, true
	}
	return "", false
}

// SalaryRange is the min/max summary of a jobseeker's wage entries.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Details is the role-specific part of a profile. It is a closed union:
// the only implementations are JobseekerDetails and EmployerDetails.
type Details interface {
	// Role reports which role this variant belongs to.
	Role() domainauth.Role
	complete(name string) bool
}

// JobseekerDetails is the onboarding data a jobseeker provides.
type JobseekerDetails struct {
	Categories        []string     `json:"categories"`
	Subcategories     []string     `json:"subcategories"`
	Vehicle           string       `json:"vehicle,omitempty"`
	Wages             WageBook     `json:"wages"`
	SalaryExpectation *SalaryRange `json:"salary_expectation,omitempty"`
	SalaryPeriod      WagePeriod   `json:"salary_period,omitempty"`
}

// Role implements Details.
func (JobseekerDetails) Role() domainauth.Role { return domainauth.RoleJobseeker }

// EmployerDetails carries employer-only fields. None of them gate completeness.
type EmployerDetails struct {
	CompanyName string `json:"company_name,omitempty"`
}

// Role implements Details.
func (EmployerDetails) Role() domainauth.Role { return domainauth.RoleEmployer }

// Profile is the backend-owned record describing a user's role and onboarding data.
type Profile struct {
	UserID       string          `json:"user_id"`
	Role         domainauth.Role `json:"role,omitempty"`
	Name         string          `json:"name"`
	Availability Availability    `json:"availability"`
	Details      Details         `json:"-"`
	// ProfileComplete caches IsComplete; only a wizard commit writes it.
	ProfileComplete bool      `json:"profile_complete"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Jobseeker returns the jobseeker variant when the profile carries one.
func (p Profile) Jobseeker() (JobseekerDetails, bool) {
	switch d := p.Details.(type) {
	case JobseekerDetails:
		return d, true
	case *JobseekerDetails:
		if d != nil {
			return *d, true
		}
	}
	return JobseekerDetails{}, false
}

// Employer returns the employer variant when the profile carries one.
func (p Profile) Employer() (EmployerDetails, bool) {
	switch d := p.Details.(type) {
	case EmployerDetails:
		return d, true
	case *EmployerDetails:
		if d != nil {
			return *d, true
		}
	}
	return EmployerDetails{}, false
}

// Patch is the full, normalized update produced by onboarding.
// The role is deliberately absent: onboarding never changes it.
type Patch struct {
	Name            string       `json:"name"`
	Availability    Availability `json:"availability,omitempty"`
	Details         Details      `json:"-"`
	ProfileComplete bool         `json:"profile_complete"`
}

// Apply returns p with the patch written over it. Slices and the wage book
// are copied so the result does not alias the patch.
func (p Profile) Apply(patch Patch) Profile {
	out := p
	out.Name = patch.Name
	if patch.Availability != "" {
		out.Availability = patch.Availability
	}
	out.Details = cloneDetails(patch.Details)
	out.ProfileComplete = patch.ProfileComplete
	return out
}

func cloneDetails(d Details) Details {
	switch v := d.(type) {
	case JobseekerDetails:
		return v.clone()
	case *JobseekerDetails:
		if v == nil {
			return nil
		}
		return v.clone()
	case *EmployerDetails:
		if v == nil {
			return nil
		}
		return *v
	default:
		return d
	}
}

func (d JobseekerDetails) clone() JobseekerDetails {
	out := d
	out.Categories = slices.Clone(d.Categories)
	out.Subcategories = slices.Clone(d.Subcategories)
	out.Wages = d.Wages.Clone()
	if d.SalaryExpectation != nil {
		r := *d.SalaryExpectation
		out.SalaryExpectation = &r
	}
	return out
}
