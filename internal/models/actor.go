package models

import (
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

type Actor struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Email     string      `json:"email" db:"email"`
	Roles     []RoleGrant `json:"roles,omitempty"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// RoleGrant gives an actor a role within a scope. Scope is a family name or
// "*" for every family.
type RoleGrant struct {
	ActorID   string        `json:"actor_id" db:"actor_id"`
	Role      workflow.Role `json:"role" db:"role"`
	Scope     string        `json:"scope" db:"scope"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

const ScopeAll = "*"
