package service

import (
	"context"
	"log"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/events"
	"github.com/Luismi76/cursos/internal/models"
	"github.com/Luismi76/cursos/internal/repository"
	"github.com/Luismi76/cursos/internal/validation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Publisher fans an event out to the course's subscribers. Delivery is best
// effort and never reports failure back to the caller.
type Publisher interface {
	Publish(ev events.Event)
}

// CourseChatService is the single entry point for course chat operations.
// Writes commit before anything is published.
type CourseChatService struct {
	directory    *DirectoryService
	messages     repository.CourseMessageRepositoryInterface
	unread       *UnreadTracker
	tx           repository.TxRunner
	publisher    Publisher
	messageCache *cache.MessageCache
}

func NewCourseChatService(
	directory *DirectoryService,
	messages repository.CourseMessageRepositoryInterface,
	cursors repository.ReadCursorRepositoryInterface,
	tx repository.TxRunner,
	publisher Publisher,
	messageCache *cache.MessageCache,
) *CourseChatService {
	return &CourseChatService{
		directory:    directory,
		messages:     messages,
		unread:       NewUnreadTracker(messages, cursors),
		tx:           tx,
		publisher:    publisher,
		messageCache: messageCache,
	}
}

func (s *CourseChatService) Authorize(ctx context.Context, courseID, userID uuid.UUID) (*models.Identity, error) {
	return s.directory.Authorize(ctx, courseID, userID)
}

// Send stores a message and broadcasts it with the sender's current identity.
func (s *CourseChatService) Send(ctx context.Context, courseID, senderID uuid.UUID, content string) (*models.CourseMessageResponse, error) {
	content, err := validation.NormalizeMessageContent(content)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}

	sender, err := s.directory.Authorize(ctx, courseID, senderID)
	if err != nil {
		return nil, err
	}

	message := &models.CourseMessage{
		CourseID: courseID,
		SenderID: senderID,
		Content:  content,
	}
	err = s.tx.WithinTx(ctx, func(stores repository.ChatStores) error {
		return stores.Messages.Append(ctx, message)
	})
	if err != nil {
		return nil, storageError(err, "append course message")
	}

	author := sender.Author()
	response := message.ToResponse(&author)

	if err := s.messageCache.MessageAppended(courseID); err != nil {
		log.Printf("Failed to retire cached history for course %s: %v", courseID, err)
	}

	s.publish(events.NewMessage{Message: response})
	return &response, nil
}

// History returns every message of the course, oldest first.
func (s *CourseChatService) History(ctx context.Context, courseID, userID uuid.UUID) ([]models.CourseMessageResponse, error) {
	if _, err := s.directory.Authorize(ctx, courseID, userID); err != nil {
		return nil, err
	}

	version, cacheable := s.messageCache.HistoryVersion(courseID)
	if cacheable {
		if cached, ok := s.messageCache.GetCourseHistory(courseID, version); ok {
			return cached, nil
		}
	}

	messages, err := s.messages.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, storageError(err, "list course messages")
	}

	authors := make(map[uuid.UUID]*models.AuthorResponse)
	responses := make([]models.CourseMessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse(s.author(ctx, authors, messages[i].SenderID)))
	}

	if cacheable {
		if err := s.messageCache.SetCourseHistory(courseID, version, responses); err != nil {
			log.Printf("Failed to cache history for course %s: %v", courseID, err)
		}
	}
	return responses, nil
}

// Message looks up one message of the course.
func (s *CourseChatService) Message(ctx context.Context, courseID, userID, messageID uuid.UUID) (*models.CourseMessageResponse, error) {
	if _, err := s.directory.Authorize(ctx, courseID, userID); err != nil {
		return nil, err
	}

	message, err := s.messages.FindByID(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "message %s", messageID)
	}
	if err != nil {
		return nil, storageError(err, "find course message")
	}
	if message.CourseID != courseID {
		return nil, errors.Wrapf(ErrNotFound, "message %s", messageID)
	}

	response := message.ToResponse(s.author(ctx, nil, message.SenderID))
	return &response, nil
}

func (s *CourseChatService) UnreadCount(ctx context.Context, courseID, userID uuid.UUID) (int64, error) {
	if _, err := s.directory.Authorize(ctx, courseID, userID); err != nil {
		return 0, err
	}

	version, cacheable := s.messageCache.UnreadVersion(courseID, userID)
	if cacheable {
		if count, ok := s.messageCache.GetUnreadCount(courseID, userID, version); ok {
			return count, nil
		}
	}

	count, err := s.unread.UnreadCount(ctx, courseID, userID)
	if err != nil {
		return 0, storageError(err, "count unread messages")
	}

	if cacheable {
		if err := s.messageCache.SetUnreadCount(courseID, userID, version, count); err != nil {
			log.Printf("Failed to cache unread count for user %s in course %s: %v", userID, courseID, err)
		}
	}
	return count, nil
}

// MarkRead moves the reader's cursor to the newest message and broadcasts the
// ids it newly covers. An empty course leaves the cursor alone and sends no receipt.
func (s *CourseChatService) MarkRead(ctx context.Context, courseID, userID uuid.UUID) ([]uuid.UUID, error) {
	reader, err := s.directory.Authorize(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	var covered []uuid.UUID
	advanced := false
	err = s.tx.WithinTx(ctx, func(stores repository.ChatStores) error {
		latest, err := stores.Messages.FindLatest(ctx, courseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		// The receipt covers exactly what the cursor will cover.
		ids, err := NewUnreadTracker(stores.Messages, stores.Cursors).UnreadIDs(ctx, courseID, userID, latest.Position())
		if err != nil {
			return err
		}

		if _, err := stores.Cursors.Upsert(ctx, courseID, userID, latest.ID); err != nil {
			return err
		}
		covered = ids
		advanced = true
		return nil
	})
	if err != nil {
		return nil, storageError(err, "mark course read")
	}

	if covered == nil {
		covered = []uuid.UUID{}
	}
	if !advanced {
		return covered, nil
	}

	if err := s.messageCache.CursorMoved(courseID, userID); err != nil {
		log.Printf("Failed to retire cached unread count for user %s in course %s: %v", userID, courseID, err)
	}

	s.publish(events.NewReadReceipt(courseID, reader, covered))
	return covered, nil
}

// Typing relays a typing indicator. Nothing is stored.
func (s *CourseChatService) Typing(ctx context.Context, courseID, userID uuid.UUID, isTyping bool) error {
	who, err := s.directory.Authorize(ctx, courseID, userID)
	if err != nil {
		return err
	}
	s.publish(events.NewTyping(courseID, who, isTyping))
	return nil
}

func (s *CourseChatService) publish(ev events.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ev)
}

// author resolves the current display data of a sender, memoized in seen.
// It returns nil when the sender cannot be resolved so the stored sender row is used.
func (s *CourseChatService) author(ctx context.Context, seen map[uuid.UUID]*models.AuthorResponse, senderID uuid.UUID) *models.AuthorResponse {
	if a, ok := seen[senderID]; ok {
		return a
	}
	var a *models.AuthorResponse
	if identity, err := s.directory.Identity(ctx, senderID); err == nil {
		resolved := identity.Author()
		a = &resolved
	} else {
		log.Printf("Failed to resolve author %s: %v", senderID, err)
	}
	if seen != nil {
		seen[senderID] = a
	}
	return a
}
