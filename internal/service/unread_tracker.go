package service

import (
	"context"
	"log"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/Luismi76/cursos/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UnreadTracker derives unread messages from a reader's cursor. A message is
// unread when someone else sent it and it sits after the cursor's message in
// (sent_at, id) order. Without a cursor every message from others is unread.
type UnreadTracker struct {
	messages repository.CourseMessageRepositoryInterface
	cursors  repository.ReadCursorRepositoryInterface
}

func NewUnreadTracker(messages repository.CourseMessageRepositoryInterface, cursors repository.ReadCursorRepositoryInterface) *UnreadTracker {
	return &UnreadTracker{messages: messages, cursors: cursors}
}

// UnreadIDs lists the unread messages positioned at or before through.
func (t *UnreadTracker) UnreadIDs(ctx context.Context, courseID, userID uuid.UUID, through models.MessagePosition) ([]uuid.UUID, error) {
	anchor, err := t.anchor(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return t.messages.ListIDsExcludingSender(ctx, courseID, through, userID)
	}
	return t.messages.ListIDsAfter(ctx, courseID, *anchor, through, userID)
}

func (t *UnreadTracker) UnreadCount(ctx context.Context, courseID, userID uuid.UUID) (int64, error) {
	anchor, err := t.anchor(ctx, courseID, userID)
	if err != nil {
		return 0, err
	}
	if anchor == nil {
		return t.messages.CountExcludingSender(ctx, courseID, userID)
	}
	return t.messages.CountAfter(ctx, courseID, *anchor, userID)
}

// anchor returns the position of the last read message, or nil when the
// reader has never read the course.
func (t *UnreadTracker) anchor(ctx context.Context, courseID, userID uuid.UUID) (*models.MessagePosition, error) {
	cursor, err := t.cursors.Find(ctx, courseID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cursor.LastReadMessageID == nil {
		return nil, nil
	}

	message, err := t.messages.FindByID(ctx, *cursor.LastReadMessageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Read cursor of user %s in course %s points at missing message %s; treating as never read",
			userID, courseID, *cursor.LastReadMessageID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if message.CourseID != courseID {
		log.Printf("Read cursor of user %s in course %s points at message %s of course %s; treating as never read",
			userID, courseID, message.ID, message.CourseID)
		return nil, nil
	}

	position := message.Position()
	return &position, nil
}
