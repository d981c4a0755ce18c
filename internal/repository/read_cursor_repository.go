package repository

import (
	"context"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadCursorRepository struct {
	db *gorm.DB
}

func NewReadCursorRepository(db *gorm.DB) *ReadCursorRepository {
	return &ReadCursorRepository{db: db}
}

func (r *ReadCursorRepository) Find(ctx context.Context, courseID, userID uuid.UUID) (*models.ReadCursor, error) {
	var cursor models.ReadCursor
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Take(&cursor).Error
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

// Upsert replaces the stored pointer unconditionally. An older message id
// moves the cursor backwards.
func (r *ReadCursorRepository) Upsert(ctx context.Context, courseID, userID, lastReadMessageID uuid.UUID) (*models.ReadCursor, error) {
	now := models.ServerTimestamp()
	cursor := models.ReadCursor{
		CourseID:          courseID,
		UserID:            userID,
		LastReadMessageID: &lastReadMessageID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_message_id", "updated_at"}),
	}).Create(&cursor).Error
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}
