package repository

import (
	"context"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const messageOrder = "sent_at ASC, id ASC"

type CourseMessageRepository struct {
	db *gorm.DB
}

func NewCourseMessageRepository(db *gorm.DB) *CourseMessageRepository {
	return &CourseMessageRepository{db: db}
}

// Append stamps the message with a fresh id and the server clock before
// inserting it. Callers never choose either value.
func (r *CourseMessageRepository) Append(ctx context.Context, message *models.CourseMessage) error {
	message.ID = uuid.New()
	message.SentAt = models.ServerTimestamp()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

func (r *CourseMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CourseMessage, error) {
	var message models.CourseMessage
	err := r.db.WithContext(ctx).Preload("Sender").Where("id = ?", id).Take(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *CourseMessageRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMessage, error) {
	var messages []models.CourseMessage
	err := r.db.WithContext(ctx).Preload("Sender").
		Where("course_id = ?", courseID).
		Order(messageOrder).
		Find(&messages).Error
	return messages, err
}

func (r *CourseMessageRepository) FindLatest(ctx context.Context, courseID uuid.UUID) (*models.CourseMessage, error) {
	var message models.CourseMessage
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sent_at DESC, id DESC").
		Limit(1).
		Take(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *CourseMessageRepository) ListIDsAfter(ctx context.Context, courseID uuid.UUID, after, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.fromOthers(ctx, courseID, excludingSender).
		Scopes(strictlyAfter(after), notAfter(through)).
		Order(messageOrder).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *CourseMessageRepository) CountAfter(ctx context.Context, courseID uuid.UUID, after models.MessagePosition, excludingSender uuid.UUID) (int64, error) {
	var count int64
	err := r.fromOthers(ctx, courseID, excludingSender).
		Scopes(strictlyAfter(after)).
		Count(&count).Error
	return count, err
}

func (r *CourseMessageRepository) ListIDsExcludingSender(ctx context.Context, courseID uuid.UUID, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.fromOthers(ctx, courseID, excludingSender).
		Scopes(notAfter(through)).
		Order(messageOrder).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *CourseMessageRepository) CountExcludingSender(ctx context.Context, courseID uuid.UUID, excludingSender uuid.UUID) (int64, error) {
	var count int64
	err := r.fromOthers(ctx, courseID, excludingSender).Count(&count).Error
	return count, err
}

func (r *CourseMessageRepository) fromOthers(ctx context.Context, courseID, excludingSender uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CourseMessage{}).
		Where("course_id = ? AND sender_id <> ?", courseID, excludingSender)
}

// strictlyAfter keeps rows positioned after p in (sent_at, id) order.
func strictlyAfter(p models.MessagePosition) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(sent_at > ? OR (sent_at = ? AND id > ?))", p.SentAt, p.SentAt, p.ID)
	}
}

// notAfter keeps rows positioned at or before p.
func notAfter(p models.MessagePosition) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(sent_at < ? OR (sent_at = ? AND id <= ?))", p.SentAt, p.SentAt, p.ID)
	}
}
