package repository

import (
	"context"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the read access the chat needs to user accounts
type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CourseRepositoryInterface defines the membership lookups against courses and enrollments
type CourseRepositoryInterface interface {
	Exists(ctx context.Context, courseID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

// CourseMessageRepositoryInterface defines the contract for the append-only course message log.
// Every list is ordered by (sent_at, id) ascending. The id lists stop at the
// through position, inclusive.
type CourseMessageRepositoryInterface interface {
	Append(ctx context.Context, message *models.CourseMessage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CourseMessage, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMessage, error)
	FindLatest(ctx context.Context, courseID uuid.UUID) (*models.CourseMessage, error)
	ListIDsAfter(ctx context.Context, courseID uuid.UUID, after, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error)
	CountAfter(ctx context.Context, courseID uuid.UUID, after models.MessagePosition, excludingSender uuid.UUID) (int64, error)
	ListIDsExcludingSender(ctx context.Context, courseID uuid.UUID, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error)
	CountExcludingSender(ctx context.Context, courseID uuid.UUID, excludingSender uuid.UUID) (int64, error)
}

// ReadCursorRepositoryInterface defines the contract for per-user read cursors
type ReadCursorRepositoryInterface interface {
	Find(ctx context.Context, courseID, userID uuid.UUID) (*models.ReadCursor, error)
	Upsert(ctx context.Context, courseID, userID, lastReadMessageID uuid.UUID) (*models.ReadCursor, error)
}

// ChatStores are the repositories bound to one transaction.
type ChatStores struct {
	Messages CourseMessageRepositoryInterface
	Cursors  ReadCursorRepositoryInterface
}

// TxRunner runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(stores ChatStores) error) error
}
