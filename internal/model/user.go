package model

import "strings"

// Role is the capability tag carried in the session token. Roles are compared
// by equality only; there is no hierarchy between them.
type Role string

const (
	RoleAdmin     Role = "ROLE_ADMIN"
	RoleAnnotator Role = "ROLE_USER"
)

func (r Role) String() string {
	return string(r)
}

// Identity is the decoded, in-memory view of the signed-in user.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
	Gender    string `json:"gender"`
}

func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

func ParseGender(raw string) (Gender, bool) {
	switch Gender(strings.ToUpper(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	default:
		return "", false
	}
}

type Annotator struct {
	ID            int64    `json:"id"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	Gender        Gender   `json:"gender"`
	Enabled       bool     `json:"enabled"`
	Deleted       bool     `json:"deleted,omitempty"`
	SpamScore     *float64 `json:"spamScore,omitempty"`
	QualityMetric *float64 `json:"qualityMetric,omitempty"`
}

func (a Annotator) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
