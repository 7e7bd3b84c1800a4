package profile

import (
	"bytes"
	"encoding/json"
	"fmt"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
)

// EncodeDetails serializes the role-specific details. nil encodes as {}.
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode %s details: %w", d.Role(), err)
	}
	return b, nil
}

// DecodeDetails parses stored details into the variant for role. A profile
// without a role carries no details.
func DecodeDetails(role domainauth.Role, data []byte) (Details, error) {
	data = bytes.TrimSpace(data)
	empty := len(data) == 0 || bytes.Equal(data, []byte("null"))
	switch role {
	case domainauth.RoleJobseeker:
		var js JobseekerDetails
		if !empty {
			if err := json.Unmarshal(data, &js); err != nil {
				return nil, fmt.Errorf("decode jobseeker details: %w", err)
			}
		}
		return js, nil
	case domainauth.RoleEmployer:
		var em EmployerDetails
		if !empty {
			if err := json.Unmarshal(data, &em); err != nil {
				return nil, fmt.Errorf("decode employer details: %w", err)
			}
		}
		return em, nil
	default:
		return nil, nil
	}
}

type profileJSON struct {
	UserID          string          `json:"user_id"`
	Role            domainauth.Role `json:"role,omitempty"`
	Name            string          `json:"name"`
	Availability    Availability    `json:"availability"`
	Details         json.RawMessage `json:"details,omitempty"`
	ProfileComplete bool            `json:"profile_complete"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
}

const jsonTimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// MarshalJSON includes the details variant under "details".
func (p Profile) MarshalJSON() ([]byte, error) {
	out := profileJSON{
		UserID:          p.UserID,
		Role:            p.Role,
		Name:            p.Name,
		Availability:    p.Availability,
		ProfileComplete: p.ProfileComplete,
	}
	if p.Details != nil {
		raw, err := EncodeDetails(p.Details)
		if err != nil {
			return nil, err
		}
		out.Details = raw
	}
	if !p.UpdatedAt.IsZero() {
		out.UpdatedAt = p.UpdatedAt.UTC().Format(jsonTimeLayout)
	}
	return json.Marshal(out)
}
