package repository

import (
	"context"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(stores ChatStores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ChatStores{
			Messages: NewCourseMessageRepository(tx),
			Cursors:  NewReadCursorRepository(tx),
		})
	})
}
