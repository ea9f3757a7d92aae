package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/runemikla/hallaien-2/internal/model"
)

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT id, role, first_name, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Role, &p.FirstName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, firstName *string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE profiles
		SET first_name = $2, updated_at = now()
		WHERE id = $1
	`, id, firstName)
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
