// Package access decides whether a student may reach an assistant. Two grant
// paths exist and either is sufficient: a time-limited grant obtained by
// redeeming a share code, and a standing grant through the student's
// education programs.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/model"
	"github.com/runemikla/hallaien-2/internal/repository"
)

var (
	ErrAssistantNotFound = errors.New("assistant not found")
	ErrNotOwner          = errors.New("assistant not owned by issuer")
	ErrInvalidOrExpired  = errors.New("invalid or expired share code")
	// ErrCodeSpaceExhausted is returned when repeated generation attempts all
	// collided with live codes. Issuing fails rather than putting a known
	// duplicate in circulation.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique share code")
)

// Path names the grant mechanism behind a positive decision.
type Path string

const (
	PathShareCode Path = "share_code"
	PathProgram   Path = "program"
)

// Decision is the resolver outcome. Denial is a normal value, not an error.
// ExpiresAt is set only for share-code grants; program grants stand until
// the link is removed.
type Decision struct {
	Granted   bool
	Via       Path
	ExpiresAt *time.Time
}

// Denied is the zero decision.
var Denied = Decision{}

// AccessibleAssistant is one dashboard entry. Via and ExpiresAt mirror the
// Decision semantics.
type AccessibleAssistant struct {
	Assistant model.Assistant
	Via       Path
	ExpiresAt *time.Time
}

// Redemption is the outcome of a successful code redemption.
type Redemption struct {
	AssistantID uuid.UUID
	ExpiresAt   time.Time
}

// Store is the persistence the service needs. *repository.Store satisfies
// it; tests plug an in-memory fake. Get-style methods return (nil, nil)
// when no row matches.
type Store interface {
	GetAssistant(ctx context.Context, id uuid.UUID) (*model.Assistant, error)
	UnexpiredAccessGrant(ctx context.Context, studentID, assistantID uuid.UUID, now time.Time) (*model.AccessGrant, error)
	UpsertAccessGrant(ctx context.Context, studentID, assistantID uuid.UUID, expiresAt time.Time) error
	StudentProgramIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	AssistantLinkedToAny(ctx context.Context, assistantID uuid.UUID, programIDs []uuid.UUID) (bool, error)
	CreateShareCode(ctx context.Context, code *model.ShareCode) error
	ActiveShareCode(ctx context.Context, code string, now time.Time) (*model.ShareCode, error)
	ActiveShareCodeExists(ctx context.Context, code string, now time.Time) (bool, error)
	ShareCodeAccessibleAssistants(ctx context.Context, studentID uuid.UUID, now time.Time) ([]repository.GrantedAssistant, error)
	ProgramAccessibleAssistants(ctx context.Context, studentID uuid.UUID) ([]*model.Assistant, error)
}

type Service struct {
	store    Store
	logger   *zap.Logger
	codeTTL  time.Duration
	grantTTL time.Duration
	now      func() time.Time
}

func NewService(store Store, logger *zap.Logger, codeTTL, grantTTL time.Duration) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		codeTTL:  codeTTL,
		grantTTL: grantTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
