// Package memstore is a mutex-guarded in-memory implementation of the
// store interfaces. It backs unit tests, including the concurrency test
// for at-most-once approval, and mirrors the compare-and-set semantics of
// the conditional update the Postgres store performs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

type Store struct {
	mu        sync.Mutex
	users     map[uuid.UUID]store.User
	locations map[uuid.UUID]store.Location
	customers map[uuid.UUID]store.Customer
	entities  map[uuid.UUID]workflow.Entity
	history   map[uuid.UUID][]workflow.HistoryEntry
}

func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]store.User),
		locations: make(map[uuid.UUID]store.Location),
		customers: make(map[uuid.UUID]store.Customer),
		entities:  make(map[uuid.UUID]workflow.Entity),
		history:   make(map[uuid.UUID][]workflow.HistoryEntry),
	}
}

func (s *Store) PutUser(u store.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (s *Store) UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *Store) AssignLocation(ctx context.Context, userID, locationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range u.LocationIDs {
		if id == locationID {
			return nil
		}
	}
	u.LocationIDs = append(u.LocationIDs, locationID)
	s.users[userID] = u
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Create(ctx context.Context, loc store.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
	return nil
}

// Customers returns the CustomerStore view.
func (s *Store) Customers() store.CustomerStore { return customers{s} }

// Workflow returns the WorkflowStore view.
func (s *Store) Workflow() store.WorkflowStore { return workflowStore{s} }

type customers struct{ *Store }

func (c customers) List(ctx context.Context, sc scope.Scope, limit, offset int32) ([]store.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []store.Customer
	for _, cust := range c.customers {
		if loc, ok := sc.Filter(); ok && cust.LocationID != loc {
			continue
		}
		out = append(out, cust)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (c customers) Create(ctx context.Context, cust store.Customer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customers[cust.ID] = cust
	return nil
}

type workflowStore struct{ *Store }

func (w workflowStore) Get(ctx context.Context, kind workflow.Kind, id uuid.UUID) (workflow.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok || e.Kind != kind {
		return workflow.Entity{}, store.ErrNotFound
	}
	return e, nil
}

func (w workflowStore) List(ctx context.Context, kind workflow.Kind, sc scope.Scope, limit, offset int32) ([]workflow.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []workflow.Entity
	for _, e := range w.entities {
		if e.Kind != kind {
			continue
		}
		if loc, ok := sc.Filter(); ok && e.LocationID != loc {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, limit, offset), nil
}

func (w workflowStore) Create(ctx context.Context, e workflow.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.entities[e.ID]; exists {
		return fmt.Errorf("entity %s already exists", e.ID)
	}
	w.entities[e.ID] = e
	return nil
}

func (w workflowStore) ApplyTransition(ctx context.Context, e workflow.Entity, entry workflow.HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, ok := w.entities[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	// Compare-and-set: the write only lands if the stored status is still
	// the one the transition was validated against.
	if current.Status != entry.PreviousStatus {
		return fmt.Errorf("%w: status changed concurrently", workflow.ErrInvalidTransition)
	}

	current.Status = entry.NewStatus
	if current.ApprovedBy == nil {
		current.ApprovedBy = e.ApprovedBy
	}
	current.TechnicianID = e.TechnicianID
	current.OpenLineItems = e.OpenLineItems
	current.DiagnosticsRecorded = e.DiagnosticsRecorded
	current.EstimateApproved = e.EstimateApproved
	w.entities[e.ID] = current
	w.history[e.ID] = append(w.history[e.ID], entry)
	return nil
}

func (w workflowStore) History(ctx context.Context, entityID uuid.UUID) ([]workflow.HistoryEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := w.history[entityID]
	out := make([]workflow.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func paginate[T any](in []T, limit, offset int32) []T {
	if offset >= int32(len(in)) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && int32(len(in)) > limit {
		in = in[:limit]
	}
	return in
}
