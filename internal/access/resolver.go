package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolve checks the share-code grant first so callers can surface the
// expiry countdown, then falls back to the standing program path. Program
// membership is re-read on every call: removing a link revokes access on the
// next resolution.
func (s *Service) Resolve(ctx context.Context, studentID, assistantID uuid.UUID) (Decision, error) {
	now := s.now()

	grant, err := s.store.UnexpiredAccessGrant(ctx, studentID, assistantID, now)
	if err != nil {
		return Denied, fmt.Errorf("resolve access: %w", err)
	}
	if grant != nil {
		expiresAt := grant.ExpiresAt
		return Decision{Granted: true, Via: PathShareCode, ExpiresAt: &expiresAt}, nil
	}

	programIDs, err := s.store.StudentProgramIDs(ctx, studentID)
	if err != nil {
		return Denied, fmt.Errorf("resolve access: %w", err)
	}
	if len(programIDs) > 0 {
		linked, err := s.store.AssistantLinkedToAny(ctx, assistantID, programIDs)
		if err != nil {
			return Denied, fmt.Errorf("resolve access: %w", err)
		}
		if linked {
			return Decision{Granted: true, Via: PathProgram}, nil
		}
	}

	s.logger.Debug("access denied",
		zap.String("student_id", studentID.String()),
		zap.String("assistant_id", assistantID.String()),
	)
	return Denied, nil
}

// ListAccessible returns the deduplicated union of assistants reachable via
// unexpired share-code grants and via program links. When both paths grant
// the same assistant the share-code entry wins: the outcome is identical but
// it carries the expiry.
func (s *Service) ListAccessible(ctx context.Context, studentID uuid.UUID) ([]AccessibleAssistant, error) {
	now := s.now()

	granted, err := s.store.ShareCodeAccessibleAssistants(ctx, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("list accessible: %w", err)
	}
	byProgram, err := s.store.ProgramAccessibleAssistants(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list accessible: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(granted))
	result := make([]AccessibleAssistant, 0, len(granted)+len(byProgram))
	for _, g := range granted {
		expiresAt := g.ExpiresAt
		result = append(result, AccessibleAssistant{
			Assistant: g.Assistant,
			Via:       PathShareCode,
			ExpiresAt: &expiresAt,
		})
		seen[g.Assistant.ID] = true
	}
	for _, assistant := range byProgram {
		if seen[assistant.ID] {
			continue
		}
		result = append(result, AccessibleAssistant{
			Assistant: *assistant,
			Via:       PathProgram,
		})
	}
	return result, nil
}
