package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in identity provider tokens.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Assistant is a teacher-owned reference to an externally hosted
// conversational voice agent. AgentID names the agent at the voice provider.
type Assistant struct {
	ID          uuid.UUID
	TeacherID   uuid.UUID
	Name        string
	AgentID     string
	Description *string
	AvatarURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Program is an education program (utdanningsprogram). Linking an assistant
// to a program grants standing access to every student enrolled in it.
type Program struct {
	ID   uuid.UUID
	Code string
	Name string
}

// Profile mirrors the identity provider's record for a principal. The role
// column is informational; authorization always reads the token claims.
type Profile struct {
	ID        uuid.UUID
	Role      string
	FirstName *string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShareCode is a reusable 6-character capability token for 24-hour access to
// one assistant. Expired rows stay in place and are filtered on read.
type ShareCode struct {
	ID          uuid.UUID
	Code        string
	AssistantID uuid.UUID
	TeacherID   uuid.UUID
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// AccessGrant records that a student may reach an assistant until ExpiresAt.
// At most one row exists per (student, assistant) pair; redeeming another
// code refreshes ExpiresAt instead of inserting a second row.
type AccessGrant struct {
	StudentID   uuid.UUID
	AssistantID uuid.UUID
	ExpiresAt   time.Time
}
