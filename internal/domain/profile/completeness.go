package profile

import (
	"strings"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
)

// IsComplete derives whether a profile may leave onboarding.
// A profile without a role, or whose details belong to a different role, is
// never complete.
func IsComplete(p Profile) bool {
	if !p.Role.Valid() {
		return false
	}
	d := p.Details
	if d == nil {
		d = emptyDetails(p.Role)
	}
	if d.Role() != p.Role {
		return false
	}
	return d.complete(p.Name)
}

func emptyDetails(role domainauth.Role) Details {
	if role == domainauth.RoleEmployer {
		return EmployerDetails{}
	}
	return JobseekerDetails{}
}

func (EmployerDetails) complete(name string) bool {
	return strings.TrimSpace(name) != ""
}

func (d JobseekerDetails) complete(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if len(d.Categories) == 0 {
		return false
	}
	return d.Wages.Len() > 0 || d.SalaryExpectation != nil
}
