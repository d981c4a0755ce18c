package service

import (
	"github.com/pkg/errors"
)

var (
	ErrUnauthorized       = errors.New("user is not a member of this course")
	ErrInvalidReference   = errors.New("course or user does not exist")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageError(err error, op string) error {
	return errors.Wrapf(ErrStorageUnavailable, "%s: %v", op, err)
}
