package access

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/model"
)

// codeAlphabet holds 32 symbols: uppercase letters and digits with the
// visually confusable ones (0/O, 1/I) removed. 32 divides 256, so reducing a
// random byte modulo the alphabet size stays uniform.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	maxGenerateAttempts = 10
)

// IssueCode creates a share code for the assistant after verifying the
// issuer owns it. Candidate codes are checked against unexpired rows only;
// a collision with expired garbage is fine. After maxGenerateAttempts
// collisions the issuer gives up instead of knowingly issuing a duplicate
// live code.
func (s *Service) IssueCode(ctx context.Context, teacherID, assistantID uuid.UUID) (*model.ShareCode, error) {
	assistant, err := s.store.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}
	if assistant == nil {
		return nil, ErrAssistantNotFound
	}
	if assistant.TeacherID != teacherID {
		return nil, ErrNotOwner
	}

	now := s.now()
	code := ""
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("issue code: %w", err)
		}
		exists, err := s.store.ActiveShareCodeExists(ctx, candidate, now)
		if err != nil {
			return nil, fmt.Errorf("issue code: %w", err)
		}
		if !exists {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrCodeSpaceExhausted
	}

	shareCode := &model.ShareCode{
		Code:        code,
		AssistantID: assistantID,
		TeacherID:   teacherID,
		ExpiresAt:   now.Add(s.codeTTL),
	}
	if err := s.store.CreateShareCode(ctx, shareCode); err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}

	s.logger.Info("share code issued",
		zap.String("teacher_id", teacherID.String()),
		zap.String("assistant_id", assistantID.String()),
		zap.Time("expires_at", shareCode.ExpiresAt),
	)
	return shareCode, nil
}

// Redeem exchanges a valid code for an access grant on the linked assistant.
// The grant upsert is a single statement, so redeeming the same code twice
// refreshes the expiry instead of creating a second row. The code itself is
// not consumed; any number of students can redeem it until it expires.
func (s *Service) Redeem(ctx context.Context, studentID uuid.UUID, code string) (*Redemption, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrInvalidOrExpired
	}

	now := s.now()
	shareCode, err := s.store.ActiveShareCode(ctx, normalized, now)
	if err != nil {
		return nil, fmt.Errorf("redeem code: %w", err)
	}
	if shareCode == nil {
		return nil, ErrInvalidOrExpired
	}

	expiresAt := now.Add(s.grantTTL)
	if err := s.store.UpsertAccessGrant(ctx, studentID, shareCode.AssistantID, expiresAt); err != nil {
		return nil, fmt.Errorf("redeem code: %w", err)
	}

	s.logger.Info("share code redeemed",
		zap.String("student_id", studentID.String()),
		zap.String("assistant_id", shareCode.AssistantID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return &Redemption{AssistantID: shareCode.AssistantID, ExpiresAt: expiresAt}, nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
