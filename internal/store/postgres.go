package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

// Postgres implements the store interfaces on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, COALESCE(role, '') FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("querying user: %w", err)
	}

	u.LocationIDs, err = p.userLocations(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (p *Postgres) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, COALESCE(role, '') FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("querying user by email: %w", err)
	}

	u.LocationIDs, err = p.userLocations(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (p *Postgres) userLocations(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT location_id FROM user_locations WHERE user_id = $1 ORDER BY location_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user locations: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning location id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AssignLocation(ctx context.Context, userID, locationID uuid.UUID) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO user_locations (user_id, location_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, locationID)
	if err != nil {
		return fmt.Errorf("assigning location: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Location, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, code FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Code); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (p *Postgres) Create(ctx context.Context, loc Location) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO locations (id, name, code) VALUES ($1, $2, $3)`,
		loc.ID, loc.Name, loc.Code)
	if err != nil {
		return fmt.Errorf("inserting location: %w", err)
	}
	return nil
}

// Customers returns the CustomerStore view of the pool.
func (p *Postgres) Customers() CustomerStore { return (*postgresCustomers)(p) }

// Workflow returns the WorkflowStore view of the pool.
func (p *Postgres) Workflow() WorkflowStore { return (*postgresWorkflow)(p) }

type postgresCustomers Postgres

func (p *postgresCustomers) List(ctx context.Context, sc scope.Scope, limit, offset int32) ([]Customer, error) {
	query := `SELECT id, location_id, name, phone, email, created_at FROM customers`
	args := []any{}
	if loc, ok := sc.Filter(); ok {
		query += ` WHERE location_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, loc, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.LocationID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *postgresCustomers) Create(ctx context.Context, c Customer) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO customers (id, location_id, name, phone, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.LocationID, c.Name, c.Phone, c.Email, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting customer: %w", err)
	}
	return nil
}

type postgresWorkflow Postgres

const entityColumns = `id, kind, status, location_id, technician_id, open_line_items,
	diagnostics_recorded, estimate_approved, requested_by, approved_by`

func scanEntity(row pgx.Row) (workflow.Entity, error) {
	var e workflow.Entity
	var requestedBy *uuid.UUID
	err := row.Scan(&e.ID, &e.Kind, &e.Status, &e.LocationID, &e.TechnicianID,
		&e.OpenLineItems, &e.DiagnosticsRecorded, &e.EstimateApproved,
		&requestedBy, &e.ApprovedBy)
	if err != nil {
		return workflow.Entity{}, err
	}
	if requestedBy != nil {
		e.RequestedBy = *requestedBy
	}
	return e, nil
}

func (p *postgresWorkflow) Get(ctx context.Context, kind workflow.Kind, id uuid.UUID) (workflow.Entity, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM workflow_entities WHERE kind = $1 AND id = $2`,
		string(kind), id)
	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.Entity{}, ErrNotFound
		}
		return workflow.Entity{}, fmt.Errorf("querying workflow entity: %w", err)
	}
	return e, nil
}

func (p *postgresWorkflow) List(ctx context.Context, kind workflow.Kind, sc scope.Scope, limit, offset int32) ([]workflow.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM workflow_entities WHERE kind = $1`
	args := []any{string(kind)}
	if loc, ok := sc.Filter(); ok {
		query += ` AND location_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, loc, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workflow entities: %w", err)
	}
	defer rows.Close()

	var out []workflow.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workflow entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *postgresWorkflow) Create(ctx context.Context, e workflow.Entity) error {
	var requestedBy *uuid.UUID
	if e.RequestedBy != uuid.Nil {
		requestedBy = &e.RequestedBy
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO workflow_entities
		 (id, kind, status, location_id, technician_id, open_line_items,
		  diagnostics_recorded, estimate_approved, requested_by, approved_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
		e.ID, string(e.Kind), string(e.Status), e.LocationID, e.TechnicianID,
		e.OpenLineItems, e.DiagnosticsRecorded, e.EstimateApproved,
		requestedBy, e.ApprovedBy)
	if err != nil {
		return fmt.Errorf("inserting workflow entity: %w", err)
	}
	return nil
}

func (p *postgresWorkflow) ApplyTransition(ctx context.Context, e workflow.Entity, entry workflow.HistoryEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conditional update: only lands if the row still holds the status the
	// transition was validated against. A concurrent writer that got there
	// first leaves this matching zero rows.
	tag, err := tx.Exec(ctx,
		`UPDATE workflow_entities
		 SET status = $1, approved_by = COALESCE(approved_by, $2), updated_at = now()
		 WHERE id = $3 AND status = $4`,
		string(entry.NewStatus), e.ApprovedBy, e.ID, string(entry.PreviousStatus))
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status changed concurrently", workflow.ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO transition_history
		 (id, entity_id, previous_status, new_status, actor_id, created_at, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.EntityID, string(entry.PreviousStatus), string(entry.NewStatus),
		entry.ActorID, entry.Timestamp, entry.Note)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *postgresWorkflow) History(ctx context.Context, entityID uuid.UUID) ([]workflow.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, entity_id, previous_status, new_status, actor_id, created_at, note
		 FROM transition_history WHERE entity_id = $1 ORDER BY created_at`, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []workflow.HistoryEntry
	for rows.Next() {
		var h workflow.HistoryEntry
		if err := rows.Scan(&h.ID, &h.EntityID, &h.PreviousStatus, &h.NewStatus,
			&h.ActorID, &h.Timestamp, &h.Note); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
