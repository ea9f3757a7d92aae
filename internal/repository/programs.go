package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/runemikla/hallaien-2/internal/model"
)

func (s *Store) ListPrograms(ctx context.Context) ([]*model.Program, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name
		FROM programs
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()
	return collectPrograms(rows)
}

func (s *Store) StudentPrograms(ctx context.Context, studentID uuid.UUID) ([]*model.Program, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.code, p.name
		FROM profile_programs pp
		JOIN programs p ON p.id = pp.program_id
		WHERE pp.profile_id = $1
		ORDER BY p.code
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student programs: %w", err)
	}
	defer rows.Close()
	return collectPrograms(rows)
}

func (s *Store) StudentProgramIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT program_id
		FROM profile_programs
		WHERE profile_id = $1
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student program ids: %w", err)
	}
	defer rows.Close()
	return collectUUIDs(rows)
}

func (s *Store) AssistantProgramIDs(ctx context.Context, assistantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT program_id
		FROM assistant_programs
		WHERE assistant_id = $1
	`, assistantID)
	if err != nil {
		return nil, fmt.Errorf("list assistant program ids: %w", err)
	}
	defer rows.Close()
	return collectUUIDs(rows)
}

// AssistantLinkedToAny reports whether the assistant is linked to at least
// one of the given programs. Existence, not count, is what matters.
func (s *Store) AssistantLinkedToAny(ctx context.Context, assistantID uuid.UUID, programIDs []uuid.UUID) (bool, error) {
	if len(programIDs) == 0 {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM assistant_programs
			WHERE assistant_id = $1 AND program_id = ANY($2)
		)
	`, assistantID, programIDs).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check assistant program link: %w", err)
	}
	return exists, nil
}

// AddAssistantPrograms inserts program links, ignoring duplicates.
func (s *Store) AddAssistantPrograms(ctx context.Context, assistantID uuid.UUID, programIDs []uuid.UUID) error {
	for _, programID := range programIDs {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO assistant_programs (assistant_id, program_id)
			VALUES ($1, $2)
			ON CONFLICT (assistant_id, program_id) DO NOTHING
		`, assistantID, programID)
		if err != nil {
			return fmt.Errorf("link assistant program: %w", err)
		}
	}
	return nil
}

// ReplaceAssistantPrograms swaps the full link set in one transaction so a
// concurrent resolver never observes a half-replaced state.
func (s *Store) ReplaceAssistantPrograms(ctx context.Context, assistantID uuid.UUID, programIDs []uuid.UUID) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM assistant_programs
			WHERE assistant_id = $1
		`, assistantID); err != nil {
			return fmt.Errorf("clear assistant programs: %w", err)
		}
		for _, programID := range programIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO assistant_programs (assistant_id, program_id)
				VALUES ($1, $2)
			`, assistantID, programID); err != nil {
				return fmt.Errorf("link assistant program: %w", err)
			}
		}
		return nil
	})
}

// ProgramAccessibleAssistants lists the distinct assistants reachable through
// the student's program memberships.
func (s *Store) ProgramAccessibleAssistants(ctx context.Context, studentID uuid.UUID) ([]*model.Assistant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT a.id, a.teacher_id, a.name, a.agent_id, a.description, a.avatar_url, a.created_at, a.updated_at
		FROM profile_programs pp
		JOIN assistant_programs ap ON ap.program_id = pp.program_id
		JOIN assistants a ON a.id = ap.assistant_id
		WHERE pp.profile_id = $1
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list program accessible assistants: %w", err)
	}
	defer rows.Close()
	return collectAssistants(rows)
}

func collectPrograms(rows pgx.Rows) ([]*model.Program, error) {
	var programs []*model.Program
	for rows.Next() {
		var p model.Program
		if err := rows.Scan(&p.ID, &p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

func collectUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
