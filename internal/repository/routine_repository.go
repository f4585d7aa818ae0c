package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/routine-planner-api/internal/models"
)

const routineColumns = `id, proposal_id, catalog_version, course_codes, section_ids, snapshot, created_at`

// RoutineRepository persists confirmed routines.
type RoutineRepository struct {
	db *sqlx.DB
}

// NewRoutineRepository constructs repository.
func NewRoutineRepository(db *sqlx.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// Create stores a confirmed routine, assigning an id and timestamp when missing.
func (r *RoutineRepository) Create(ctx context.Context, routine *models.ConfirmedRoutine) error {
	if routine == nil {
		return fmt.Errorf("routine payload is nil")
	}
	if len(routine.SectionIDs) == 0 {
		return fmt.Errorf("routine has no sections")
	}
	if routine.ID == "" {
		routine.ID = uuid.NewString()
	}
	if len(routine.Snapshot) == 0 {
		routine.Snapshot = types.JSONText(`[]`)
	}
	if routine.CreatedAt.IsZero() {
		routine.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO confirmed_routines (id, proposal_id, catalog_version, course_codes, section_ids, snapshot, created_at)
VALUES (:id, :proposal_id, :catalog_version, :course_codes, :section_ids, :snapshot, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, routine); err != nil {
		return fmt.Errorf("insert confirmed routine: %w", err)
	}
	return nil
}

// FindByID loads a confirmed routine.
func (r *RoutineRepository) FindByID(ctx context.Context, id string) (*models.ConfirmedRoutine, error) {
	query := `SELECT ` + routineColumns + ` FROM confirmed_routines WHERE id = $1`
	var routine models.ConfirmedRoutine
	if err := r.db.GetContext(ctx, &routine, query, id); err != nil {
		return nil, err
	}
	return &routine, nil
}

// List returns the most recent routines first together with the total count.
func (r *RoutineRepository) List(ctx context.Context, limit, offset int) ([]models.ConfirmedRoutine, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM confirmed_routines`); err != nil {
		return nil, 0, fmt.Errorf("count confirmed routines: %w", err)
	}

	query := `SELECT ` + routineColumns + ` FROM confirmed_routines ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	routines := []models.ConfirmedRoutine{}
	if err := r.db.SelectContext(ctx, &routines, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list confirmed routines: %w", err)
	}
	return routines, total, nil
}

// Delete removes a confirmed routine.
func (r *RoutineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM confirmed_routines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete confirmed routine: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirmed routine rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
