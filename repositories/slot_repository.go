package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-progression/models"
)

// ErrIntakeMappingConflict is returned when an insert collides with an existing mapping,
// either on its source key or on its target slot.
var ErrIntakeMappingConflict = errors.New("intake mapping conflict")

type SlotRepository interface {
	// Upsert writes the slot keyed by (stage_id, group_id, slot_id).
	Upsert(ctx context.Context, slot *models.StageSlot) error
	ListByStage(ctx context.Context, stageID int) ([]*models.StageSlot, error)
	MaxSlotID(ctx context.Context, exec SQLExecutor, stageID, groupID int) (int, error)
}

type IntakeMappingRepository interface {
	// CreateBatch inserts all mappings atomically.
	CreateBatch(ctx context.Context, mappings []*models.IntakeMapping) error
	ExistsForMatch(ctx context.Context, fromStageID, round, bracketPos int) (bool, error)
	ListForMatch(ctx context.Context, fromStageID, round, bracketPos int) ([]*models.IntakeMapping, error)
	ListByTargetStage(ctx context.Context, targetStageID int) ([]*models.IntakeMapping, error)
	MaxSlotIdx(ctx context.Context, targetStageID, groupIdx int) (int, error)
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) Upsert(ctx context.Context, s *models.StageSlot) error {
	query := `
		INSERT INTO stage_slots (stage_id, group_id, slot_id, team_id, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stage_id, group_id, slot_id) DO UPDATE SET
			team_id = excluded.team_id,
			source = excluded.source`
	_, err := r.db.ExecContext(ctx, query, s.StageID, s.GroupID, s.SlotID, s.TeamID, s.Source)
	return err
}

func (r *postgresSlotRepository) ListByStage(ctx context.Context, stageID int) ([]*models.StageSlot, error) {
	query := `
		SELECT stage_id, group_id, slot_id, team_id, source
		FROM stage_slots
		WHERE stage_id = $1
		ORDER BY group_id ASC, slot_id ASC`
	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]*models.StageSlot, 0)
	for rows.Next() {
		var s models.StageSlot
		if err := rows.Scan(&s.StageID, &s.GroupID, &s.SlotID, &s.TeamID, &s.Source); err != nil {
			return nil, err
		}
		slots = append(slots, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *postgresSlotRepository) MaxSlotID(ctx context.Context, exec SQLExecutor, stageID, groupID int) (int, error) {
	executor := getExecutor(r.db, exec)
	var max sql.NullInt64
	err := executor.QueryRowContext(ctx,
		`SELECT MAX(slot_id) FROM stage_slots WHERE stage_id = $1 AND group_id = $2`,
		stageID, groupID,
	).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

type postgresIntakeMappingRepository struct {
	db *sql.DB
}

func NewPostgresIntakeMappingRepository(db *sql.DB) IntakeMappingRepository {
	return &postgresIntakeMappingRepository{db: db}
}

const intakeColumns = `id, target_stage_id, group_idx, slot_idx, from_stage_id, round, bracket_pos, outcome`

func (r *postgresIntakeMappingRepository) CreateBatch(ctx context.Context, mappings []*models.IntakeMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO intake_mappings
				(target_stage_id, group_idx, slot_idx, from_stage_id, round, bracket_pos, outcome)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`
		for _, m := range mappings {
			err := tx.QueryRowContext(ctx, query,
				m.TargetStageID, m.GroupIdx, m.SlotIdx, m.FromStageID, m.Round, m.BracketPos, m.Outcome,
			).Scan(&m.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return ErrIntakeMappingConflict
	}
	return err
}

func (r *postgresIntakeMappingRepository) ExistsForMatch(ctx context.Context, fromStageID, round, bracketPos int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM intake_mappings
			WHERE from_stage_id = $1 AND round = $2 AND bracket_pos = $3
		)`
	err := r.db.QueryRowContext(ctx, query, fromStageID, round, bracketPos).Scan(&exists)
	return exists, err
}

func (r *postgresIntakeMappingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.IntakeMapping, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := make([]*models.IntakeMapping, 0)
	for rows.Next() {
		var m models.IntakeMapping
		if err := rows.Scan(&m.ID, &m.TargetStageID, &m.GroupIdx, &m.SlotIdx, &m.FromStageID, &m.Round, &m.BracketPos, &m.Outcome); err != nil {
			return nil, err
		}
		mappings = append(mappings, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *postgresIntakeMappingRepository) ListForMatch(ctx context.Context, fromStageID, round, bracketPos int) ([]*models.IntakeMapping, error) {
	query := `
		SELECT ` + intakeColumns + `
		FROM intake_mappings
		WHERE from_stage_id = $1 AND round = $2 AND bracket_pos = $3
		ORDER BY outcome DESC`
	return r.list(ctx, query, fromStageID, round, bracketPos)
}

func (r *postgresIntakeMappingRepository) ListByTargetStage(ctx context.Context, targetStageID int) ([]*models.IntakeMapping, error) {
	query := `
		SELECT ` + intakeColumns + `
		FROM intake_mappings
		WHERE target_stage_id = $1
		ORDER BY group_idx ASC, slot_idx ASC`
	return r.list(ctx, query, targetStageID)
}

func (r *postgresIntakeMappingRepository) MaxSlotIdx(ctx context.Context, targetStageID, groupIdx int) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(slot_idx) FROM intake_mappings WHERE target_stage_id = $1 AND group_idx = $2`,
		targetStageID, groupIdx,
	).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}
