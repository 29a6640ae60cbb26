package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

type fakeEntityRepo struct {
	mu       sync.Mutex
	entities map[string]workflow.Entity
	saves    int
	saveErr  error
}

func newFakeEntityRepo() *fakeEntityRepo {
	return &fakeEntityRepo{entities: map[string]workflow.Entity{}}
}

func (r *fakeEntityRepo) Find(_ context.Context, id string) (*workflow.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok {
		return nil, nil
	}
	e.Payload = e.Payload.Clone()
	return &e, nil
}

func (r *fakeEntityRepo) Save(_ context.Context, e *workflow.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored := *e
	stored.Payload = e.Payload.Clone()
	r.entities[e.ID] = stored
	r.saves++
	return nil
}

func (r *fakeEntityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entities, id)
	return nil
}

func (r *fakeEntityRepo) FindActiveByOwner(_ context.Context, ownerID string, family workflow.Family) (*workflow.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entities {
		if e.OwnerID == ownerID && e.Family == family && family.IsActive(e.Status) {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeEntityRepo) List(_ context.Context, family workflow.Family, filter models.EntityFilter, limit, offset int) ([]workflow.Entity, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []workflow.Entity
	for _, e := range r.entities {
		if e.Family != family {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeEntityRepo) get(id string) (workflow.Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	return e, ok
}

type fakeActorRepo struct {
	mu     sync.Mutex
	actors map[string]models.Actor
	grants []models.RoleGrant
}

func newFakeActorRepo() *fakeActorRepo {
	return &fakeActorRepo{actors: map[string]models.Actor{}}
}

func (r *fakeActorRepo) add(id string, roles ...workflow.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[id] = models.Actor{ID: id, Name: id, Email: id + "@pfe.test"}
	for _, role := range roles {
		r.grants = append(r.grants, models.RoleGrant{ActorID: id, Role: role, Scope: models.ScopeAll})
	}
}

func (r *fakeActorRepo) Create(_ context.Context, a *models.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[a.ID] = *a
	return nil
}

func (r *fakeActorRepo) GetByID(_ context.Context, id string) (*models.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[id]
	if !ok {
		return nil, nil
	}
	for _, g := range r.grants {
		if g.ActorID == id {
			a.Roles = append(a.Roles, g)
		}
	}
	return &a, nil
}

func (r *fakeActorRepo) GetByEmail(_ context.Context, email string) (*models.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeActorRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.actors[id]
	return ok, nil
}

func (r *fakeActorRepo) GrantRole(_ context.Context, g *models.RoleGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.grants {
		if existing.ActorID == g.ActorID && existing.Role == g.Role && existing.Scope == g.Scope {
			return nil
		}
	}
	r.grants = append(r.grants, *g)
	return nil
}

func (r *fakeActorRepo) RevokeRole(_ context.Context, actorID string, role workflow.Role, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.grants[:0]
	for _, g := range r.grants {
		if g.ActorID == actorID && g.Role == role && g.Scope == scope {
			continue
		}
		kept = append(kept, g)
	}
	r.grants = kept
	return nil
}

func (r *fakeActorRepo) HasRole(_ context.Context, actorID string, role workflow.Role, scope string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.grants {
		if g.ActorID == actorID && g.Role == role && (g.Scope == scope || g.Scope == models.ScopeAll) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeActorRepo) ListByRoles(_ context.Context, roles []workflow.Role, scope string) ([]models.Actor, error) {
	return nil, errors.New("not used")
}

type sentNotification struct {
	recipient string
	kind      workflow.EventKind
	summary   workflow.Summary
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID string, kind workflow.EventKind, summary workflow.Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipient: recipientID, kind: kind, summary: summary})
	return n.err
}

func (n *fakeNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	urlErr     error
	lastExpiry time.Duration
}

func (s *fakeStorage) Put(_ context.Context, key string, data io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStorage) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	s.lastExpiry = expiry
	s.mu.Unlock()
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://files.pfe.test/" + key, nil
}

type fixture struct {
	entities *fakeEntityRepo
	actors   *fakeActorRepo
	notifier *fakeNotifier
	svc      *workflowService
}

func newFixture() *fixture {
	f := &fixture{
		entities: newFakeEntityRepo(),
		actors:   newFakeActorRepo(),
		notifier: &fakeNotifier{},
	}
	f.actors.add("student-1", workflow.RoleStudent)
	f.actors.add("student-2", workflow.RoleStudent)
	f.actors.add("company-1", workflow.RoleCompany)
	f.actors.add("prof-1", workflow.RoleProfessor)
	f.actors.add("uni-1", workflow.RoleUniversity)
	f.actors.add("admin-1", workflow.RoleAdmin)

	svc := NewWorkflowService(f.entities, f.actors, f.notifier, zerolog.Nop()).(*workflowService)
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	var seq int
	var mu sync.Mutex
	svc.now = func() time.Time { return clock }
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("entity-%d", seq)
	}
	f.svc = svc
	return f
}

func (f *fixture) as(actorID string) auth.AuthContext {
	return auth.NewAuthContext(auth.Actor{ID: actorID}, f.actors)
}
