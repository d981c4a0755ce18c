package repository

import (
	"context"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Exists(ctx context.Context, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error
	return count > 0, err
}

// IsMember reports whether the user teaches the course or is enrolled in it.
func (r *CourseRepository) IsMember(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", courseID).
		Where("teacher_id = ? OR EXISTS (SELECT 1 FROM course_students cs WHERE cs.course_id = courses.id AND cs.user_id = ?)", userID, userID).
		Count(&count).Error
	return count > 0, err
}
