package workflow

import (
	"fmt"
	"strings"
)

type Family string

const (
	FamilySubject Family = "subject"
	FamilyReport  Family = "report"
	FamilyDefense Family = "defense"
)

type Status string

const (
	StatusSuggested Status = "suggested"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusAssigned  Status = "assigned"
	StatusRejected  Status = "rejected"
	StatusValidated Status = "validated"
	StatusCreated   Status = "created"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

type Role string

const (
	RoleStudent    Role = "student"
	RoleCompany    Role = "company"
	RoleUniversity Role = "university"
	RoleProfessor  Role = "professor"
	RoleAdmin      Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleStudent, RoleCompany, RoleUniversity, RoleProfessor, RoleAdmin:
		return role, nil
	default:
		return "", ValidationError("invalid role", map[string]string{"role": "must be student, company, university, professor or admin"})
	}
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type familySpec struct {
	statuses    []Status
	initial     Status
	underReview Status
	approved    Status
	assigned    Status
	completed   Status
	// statuses from which Assign is accepted
	assignable []Status
	locked     []Status
	required   []string
	submitters []Role
	reviewers  []Role
	assigners  []Role
}

var families = map[Family]familySpec{
	FamilySubject: {
		statuses:    []Status{StatusSuggested, StatusPending, StatusApproved, StatusAssigned, StatusRejected},
		initial:     StatusSuggested,
		underReview: StatusPending,
		approved:    StatusApproved,
		assigned:    StatusAssigned,
		assignable:  []Status{StatusApproved, StatusAssigned},
		locked:      []Status{StatusAssigned},
		required:    []string{"title", "company"},
		submitters:  []Role{RoleStudent, RoleCompany},
		reviewers:   []Role{RoleUniversity, RoleProfessor, RoleAdmin},
		assigners:   []Role{RoleUniversity, RoleAdmin},
	},
	FamilyReport: {
		statuses:   []Status{StatusPending, StatusValidated, StatusRejected},
		initial:    StatusPending,
		approved:   StatusValidated,
		locked:     []Status{StatusValidated},
		required:   []string{"fileUrl"},
		submitters: []Role{RoleStudent},
		reviewers:  []Role{RoleProfessor, RoleAdmin},
	},
	FamilyDefense: {
		statuses:    []Status{StatusCreated, StatusPending, StatusScheduled, StatusCompleted, StatusRejected},
		initial:     StatusCreated,
		underReview: StatusPending,
		approved:    StatusScheduled,
		completed:   StatusCompleted,
		assignable:  []Status{StatusScheduled},
		locked:      []Status{StatusScheduled, StatusCompleted},
		required:    []string{"subjectId", "preferredDate"},
		submitters:  []Role{RoleStudent},
		reviewers:   []Role{RoleUniversity, RoleAdmin},
		assigners:   []Role{RoleUniversity, RoleAdmin},
	},
}

// Families lists every family in a stable order.
var Families = []Family{FamilySubject, FamilyReport, FamilyDefense}

func ParseFamily(raw string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := families[f]; !ok {
		return "", ValidationError("unknown family", map[string]string{"family": "must be subject, report or defense"})
	}
	return f, nil
}

func (f Family) String() string {
	return string(f)
}

func (f Family) Valid() bool {
	_, ok := families[f]
	return ok
}

func (f Family) spec() familySpec {
	spec, ok := families[f]
	if !ok {
		panic(fmt.Sprintf("workflow: unknown family %q", string(f)))
	}
	return spec
}

func (f Family) Statuses() []Status {
	return append([]Status(nil), f.spec().statuses...)
}

func (f Family) Initial() Status {
	return f.spec().initial
}

func (f Family) HasStatus(s Status) bool {
	return containsStatus(f.spec().statuses, s)
}

// ParseStatus validates a status string at the boundary.
func (f Family) ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !f.HasStatus(s) {
		return "", ValidationError("invalid status", map[string]string{"status": fmt.Sprintf("not a %s status", f)})
	}
	return s, nil
}

// IsActive reports whether an entity in status s counts towards the
// one-active-instance-per-owner rule.
func (f Family) IsActive(s Status) bool {
	return f.HasStatus(s) && s != StatusRejected
}

func (f Family) IsLocked(s Status) bool {
	return containsStatus(f.spec().locked, s)
}

func (f Family) IsReviewable(s Status) bool {
	spec := f.spec()
	return s == spec.initial || (spec.underReview != "" && s == spec.underReview)
}

func (f Family) RequiredFields() []string {
	return append([]string(nil), f.spec().required...)
}

func (f Family) SubmitterRoles() []Role {
	return append([]Role(nil), f.spec().submitters...)
}

func (f Family) ReviewerRoles() []Role {
	return append([]Role(nil), f.spec().reviewers...)
}

func (f Family) AssignerRoles() []Role {
	return append([]Role(nil), f.spec().assigners...)
}

// ReviewerGroup is the recipient id used when a notification targets the
// family's reviewers rather than a single actor.
func (f Family) ReviewerGroup() string {
	return "reviewers:" + string(f)
}

func containsStatus(list []Status, s Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
