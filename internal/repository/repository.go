package repository

import (
	"context"
	"time"

	"edustack/lms-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// CenterRepository defines the interface for interacting with center data.
type CenterRepository interface {
	Create(ctx context.Context, center *domain.Center) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Center, error)
	ListActive(ctx context.Context) ([]domain.Center, error)
	Update(ctx context.Context, center *domain.Center) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// CourseRepository defines the interface for interacting with course data.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error)
	GetActiveByCode(ctx context.Context, courseCode string) (*domain.Course, error)
	ListActive(ctx context.Context) ([]domain.Course, error)
	ListActiveByCenter(ctx context.Context, centerID primitive.ObjectID) ([]domain.Course, error)
	Update(ctx context.Context, course *domain.Course) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SetNmPublished(ctx context.Context, courseCode string, published bool) error
	IncTotalSubjects(ctx context.Context, id primitive.ObjectID, delta int) error
}

// SubjectRepository defines the interface for interacting with subject data.
type SubjectRepository interface {
	Create(ctx context.Context, subject *domain.Subject) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subject, error)
	ListActiveByCourse(ctx context.Context, courseID primitive.ObjectID) ([]domain.Subject, error)
	Update(ctx context.Context, subject *domain.Subject) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	IncTotalSessions(ctx context.Context, id primitive.ObjectID, delta int) error
}

// SessionRepository defines the interface for interacting with session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	ListActiveBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// ResourceRepository defines the interface for interacting with resource data.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Resource, error)
	ListActiveBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Resource, error)
	// ListObjectKeys returns the object keys of every file resource, active or
	// not. Soft-deleted rows are included so the reaper never removes an
	// object whose row still references it.
	ListObjectKeys(ctx context.Context) ([]string, error)
	UpdateMeta(ctx context.Context, id primitive.ObjectID, title, description string) (*domain.Resource, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// AdminUserRepository defines the interface for interacting with admin accounts.
type AdminUserRepository interface {
	Create(ctx context.Context, admin *domain.AdminUser) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// AuditLogRepository defines the interface for the append-only audit trail.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, limit, offset int64) ([]domain.AuditLog, error)
}

// NmClientTokenRepository stores the cached partner client-credential token.
type NmClientTokenRepository interface {
	Latest(ctx context.Context) (*domain.NmClientToken, error)
	Insert(ctx context.Context, token *domain.NmClientToken) error
}

// NmLaunchTokenRepository stores single-use launch tokens.
type NmLaunchTokenRepository interface {
	Create(ctx context.Context, token *domain.NmLaunchToken) error
	GetByToken(ctx context.Context, token string) (*domain.NmLaunchToken, error)
	// MarkUsed sets usedAt only when it is still unset; returns ErrNotFound
	// when the token was already redeemed.
	MarkUsed(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// NmStudentRepository mirrors partner students locally.
type NmStudentRepository interface {
	Upsert(ctx context.Context, student *domain.NmStudent) error
}

// NmSubscriptionRepository stores student-course subscriptions.
type NmSubscriptionRepository interface {
	Upsert(ctx context.Context, nmUserID, courseCode string) error
	GetByPair(ctx context.Context, nmUserID, courseCode string) (*domain.NmSubscription, error)
}

// NmProgressRepository stores per-(student, course) progress state.
type NmProgressRepository interface {
	Upsert(ctx context.Context, nmUserID, courseCode string, progress map[string]interface{}) error
	GetByPair(ctx context.Context, nmUserID, courseCode string) (*domain.NmProgress, error)
}
