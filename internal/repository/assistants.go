package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/runemikla/hallaien-2/internal/model"
)

func (s *Store) CreateAssistant(ctx context.Context, assistant *model.Assistant) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO assistants (teacher_id, name, agent_id, description, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, assistant.TeacherID, assistant.Name, assistant.AgentID, assistant.Description, assistant.AvatarURL).
		Scan(&assistant.ID, &assistant.CreatedAt, &assistant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create assistant: %w", err)
	}
	return nil
}

func (s *Store) GetAssistant(ctx context.Context, id uuid.UUID) (*model.Assistant, error) {
	return s.scanAssistant(ctx, `
		SELECT id, teacher_id, name, agent_id, description, avatar_url, created_at, updated_at
		FROM assistants
		WHERE id = $1
	`, id)
}

func (s *Store) GetOwnedAssistant(ctx context.Context, id, teacherID uuid.UUID) (*model.Assistant, error) {
	return s.scanAssistant(ctx, `
		SELECT id, teacher_id, name, agent_id, description, avatar_url, created_at, updated_at
		FROM assistants
		WHERE id = $1 AND teacher_id = $2
	`, id, teacherID)
}

func (s *Store) scanAssistant(ctx context.Context, query string, args ...interface{}) (*model.Assistant, error) {
	var a model.Assistant
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.TeacherID,
		&a.Name,
		&a.AgentID,
		&a.Description,
		&a.AvatarURL,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assistant: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAssistantsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.Assistant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, teacher_id, name, agent_id, description, avatar_url, created_at, updated_at
		FROM assistants
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list assistants by teacher: %w", err)
	}
	defer rows.Close()
	return collectAssistants(rows)
}

func (s *Store) AssistantsByAgentID(ctx context.Context, agentID string) ([]*model.Assistant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, teacher_id, name, agent_id, description, avatar_url, created_at, updated_at
		FROM assistants
		WHERE agent_id = $1
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list assistants by agent: %w", err)
	}
	defer rows.Close()
	return collectAssistants(rows)
}

func (s *Store) OwnsAssistantWithAgentID(ctx context.Context, teacherID uuid.UUID, agentID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM assistants
			WHERE agent_id = $1 AND teacher_id = $2
		)
	`, agentID, teacherID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check assistant ownership: %w", err)
	}
	return exists, nil
}

// UpdateAssistant rewrites the mutable fields, scoped by owner. Returns false
// when no row matched, i.e. the assistant does not exist or belongs to
// someone else.
func (s *Store) UpdateAssistant(ctx context.Context, assistant *model.Assistant) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE assistants
		SET name = $3, agent_id = $4, description = $5, avatar_url = $6, updated_at = now()
		WHERE id = $1 AND teacher_id = $2
	`, assistant.ID, assistant.TeacherID, assistant.Name, assistant.AgentID, assistant.Description, assistant.AvatarURL)
	if err != nil {
		return false, fmt.Errorf("update assistant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteAssistant(ctx context.Context, id, teacherID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM assistants
		WHERE id = $1 AND teacher_id = $2
	`, id, teacherID)
	if err != nil {
		return false, fmt.Errorf("delete assistant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectAssistants(rows pgx.Rows) ([]*model.Assistant, error) {
	var assistants []*model.Assistant
	for rows.Next() {
		var a model.Assistant
		err := rows.Scan(
			&a.ID,
			&a.TeacherID,
			&a.Name,
			&a.AgentID,
			&a.Description,
			&a.AvatarURL,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assistant: %w", err)
		}
		assistants = append(assistants, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assistants: %w", err)
	}
	return assistants, nil
}
