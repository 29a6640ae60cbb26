package service

import (
	"context"
	"testing"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

func TestCreateActorRequiresAdmin(t *testing.T) {
	f := newFixture()
	svc := NewActorService(f.actors, zerolog.Nop())
	ctx := context.Background()
	req := &models.CreateActorRequest{Name: "Sara", Email: "sara@uni.test"}

	if _, err := svc.CreateActor(ctx, f.as("student-1"), req); !workflow.IsKind(err, workflow.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	actor, err := svc.CreateActor(ctx, f.as("admin-1"), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if actor.ID == "" || actor.Email != "sara@uni.test" {
		t.Fatalf("created actor = %+v", actor)
	}

	if _, err := svc.CreateActor(ctx, f.as("admin-1"), req); !workflow.IsKind(err, workflow.KindConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}
}

func TestCreateActorValidation(t *testing.T) {
	f := newFixture()
	svc := NewActorService(f.actors, zerolog.Nop())

	_, err := svc.CreateActor(context.Background(), f.as("admin-1"), &models.CreateActorRequest{Email: "not-an-address"})
	if !workflow.IsKind(err, workflow.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := err.(*workflow.Error).Fields
	if fields["name"] == "" || fields["email"] == "" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestGrantRoleScopes(t *testing.T) {
	f := newFixture()
	svc := NewActorService(f.actors, zerolog.Nop())
	ctx := context.Background()
	f.actors.add("prof-2")

	grant, err := svc.GrantRole(ctx, f.as("admin-1"), "prof-2", &models.GrantRoleRequest{Role: "Professor", Scope: "Report"})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if grant.Role != workflow.RoleProfessor || grant.Scope != "report" {
		t.Fatalf("grant = %+v", grant)
	}

	ok, _ := svc.HasRole(ctx, "prof-2", workflow.RoleProfessor, "report")
	if !ok {
		t.Fatalf("role not effective in its scope")
	}
	ok, _ = svc.HasRole(ctx, "prof-2", workflow.RoleProfessor, "subject")
	if ok {
		t.Fatalf("role leaked to another scope")
	}

	if _, err := svc.GrantRole(ctx, f.as("admin-1"), "prof-2", &models.GrantRoleRequest{Role: "professor", Scope: "thesis"}); !workflow.IsKind(err, workflow.KindValidation) {
		t.Fatalf("bad scope: expected validation error, got %v", err)
	}
	if _, err := svc.GrantRole(ctx, f.as("admin-1"), "ghost", &models.GrantRoleRequest{Role: "professor"}); !workflow.IsKind(err, workflow.KindNotFound) {
		t.Fatalf("unknown actor: expected not found, got %v", err)
	}
	if _, err := svc.GrantRole(ctx, f.as("prof-1"), "prof-2", &models.GrantRoleRequest{Role: "admin"}); !workflow.IsKind(err, workflow.KindAuthorization) {
		t.Fatalf("non-admin grant: expected authorization error, got %v", err)
	}

	if err := svc.RevokeRole(ctx, f.as("admin-1"), "prof-2", &models.GrantRoleRequest{Role: "professor", Scope: "report"}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = svc.HasRole(ctx, "prof-2", workflow.RoleProfessor, "report")
	if ok {
		t.Fatalf("role still effective after revoke")
	}
}

func TestGetActorSelfOrAdmin(t *testing.T) {
	f := newFixture()
	svc := NewActorService(f.actors, zerolog.Nop())
	ctx := context.Background()

	self, err := svc.GetActor(ctx, f.as("student-1"), "student-1")
	if err != nil {
		t.Fatalf("get self: %v", err)
	}
	if len(self.Roles) != 1 || self.Roles[0].Role != workflow.RoleStudent {
		t.Fatalf("roles = %+v", self.Roles)
	}
	if _, err := svc.GetActor(ctx, f.as("student-1"), "student-2"); !workflow.IsKind(err, workflow.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := svc.GetActor(ctx, f.as("admin-1"), "ghost"); !workflow.IsKind(err, workflow.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBootstrapAdmin(t *testing.T) {
	repo := newFakeActorRepo()
	svc := NewActorService(repo, zerolog.Nop())
	ctx := context.Background()

	actor, err := svc.BootstrapAdmin(ctx, &models.CreateActorRequest{ID: "root", Name: "Root", Email: "root@pfe.test"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if actor.ID != "root" {
		t.Fatalf("id = %s", actor.ID)
	}
	ok, _ := repo.HasRole(ctx, "root", workflow.RoleAdmin, "subject")
	if !ok {
		t.Fatalf("bootstrapped actor is not admin")
	}

	// Running it again is harmless.
	if _, err := svc.BootstrapAdmin(ctx, &models.CreateActorRequest{ID: "root", Name: "Root", Email: "root@pfe.test"}); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}
