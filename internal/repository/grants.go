package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/runemikla/hallaien-2/internal/model"
)

// GrantedAssistant pairs an assistant with the expiry of the share-code
// grant that makes it reachable.
type GrantedAssistant struct {
	Assistant model.Assistant
	ExpiresAt time.Time
}

// UpsertAccessGrant inserts the grant or refreshes its expiry in a single
// statement. The (student_id, assistant_id) primary key makes concurrent
// redemptions collapse onto one row instead of racing an existence check.
func (s *Store) UpsertAccessGrant(ctx context.Context, studentID, assistantID uuid.UUID, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO student_access (student_id, assistant_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, assistant_id) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, studentID, assistantID, expiresAt)
	if err != nil {
		return fmt.Errorf("upsert access grant: %w", err)
	}
	return nil
}

func (s *Store) UnexpiredAccessGrant(ctx context.Context, studentID, assistantID uuid.UUID, now time.Time) (*model.AccessGrant, error) {
	var grant model.AccessGrant
	err := s.pool.QueryRow(ctx, `
		SELECT student_id, assistant_id, expires_at
		FROM student_access
		WHERE student_id = $1 AND assistant_id = $2 AND expires_at > $3
	`, studentID, assistantID, now).Scan(&grant.StudentID, &grant.AssistantID, &grant.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access grant: %w", err)
	}
	return &grant, nil
}

func (s *Store) ShareCodeAccessibleAssistants(ctx context.Context, studentID uuid.UUID, now time.Time) ([]GrantedAssistant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.teacher_id, a.name, a.agent_id, a.description, a.avatar_url, a.created_at, a.updated_at, sa.expires_at
		FROM student_access sa
		JOIN assistants a ON a.id = sa.assistant_id
		WHERE sa.student_id = $1 AND sa.expires_at > $2
	`, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("list share code accessible assistants: %w", err)
	}
	defer rows.Close()

	var granted []GrantedAssistant
	for rows.Next() {
		var g GrantedAssistant
		err := rows.Scan(
			&g.Assistant.ID,
			&g.Assistant.TeacherID,
			&g.Assistant.Name,
			&g.Assistant.AgentID,
			&g.Assistant.Description,
			&g.Assistant.AvatarURL,
			&g.Assistant.CreatedAt,
			&g.Assistant.UpdatedAt,
			&g.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan granted assistant: %w", err)
		}
		granted = append(granted, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate granted assistants: %w", err)
	}
	return granted, nil
}

func (s *Store) DeleteAccessGrantsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM student_access
		WHERE expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired access grants: %w", err)
	}
	return tag.RowsAffected(), nil
}
