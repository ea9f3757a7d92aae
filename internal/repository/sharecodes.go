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

func (s *Store) CreateShareCode(ctx context.Context, code *model.ShareCode) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO share_codes (code, assistant_id, teacher_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, code.Code, code.AssistantID, code.TeacherID, code.ExpiresAt).
		Scan(&code.ID, &code.CreatedAt)
	if err != nil {
		return fmt.Errorf("create share code: %w", err)
	}
	return nil
}

// ActiveShareCode finds an unexpired row for the code. Expiry uses a strict
// comparison: a code whose expires_at equals now is already dead. If expired
// garbage left a duplicate, the newest unexpired row wins.
func (s *Store) ActiveShareCode(ctx context.Context, code string, now time.Time) (*model.ShareCode, error) {
	var sc model.ShareCode
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, assistant_id, teacher_id, created_at, expires_at
		FROM share_codes
		WHERE code = $1 AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1
	`, code, now).Scan(&sc.ID, &sc.Code, &sc.AssistantID, &sc.TeacherID, &sc.CreatedAt, &sc.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active share code: %w", err)
	}
	return &sc, nil
}

func (s *Store) ActiveShareCodeExists(ctx context.Context, code string, now time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM share_codes
			WHERE code = $1 AND expires_at > $2
		)
	`, code, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check share code exists: %w", err)
	}
	return exists, nil
}

func (s *Store) ListActiveShareCodes(ctx context.Context, assistantID, teacherID uuid.UUID, now time.Time) ([]*model.ShareCode, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, assistant_id, teacher_id, created_at, expires_at
		FROM share_codes
		WHERE assistant_id = $1 AND teacher_id = $2 AND expires_at > $3
		ORDER BY created_at DESC
	`, assistantID, teacherID, now)
	if err != nil {
		return nil, fmt.Errorf("list active share codes: %w", err)
	}
	defer rows.Close()

	var codes []*model.ShareCode
	for rows.Next() {
		var sc model.ShareCode
		if err := rows.Scan(&sc.ID, &sc.Code, &sc.AssistantID, &sc.TeacherID, &sc.CreatedAt, &sc.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan share code: %w", err)
		}
		codes = append(codes, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share codes: %w", err)
	}
	return codes, nil
}

// DeleteShareCodesExpiredBefore removes long-dead rows. Request flows never
// delete codes; only the retention job calls this.
func (s *Store) DeleteShareCodesExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM share_codes
		WHERE expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired share codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
