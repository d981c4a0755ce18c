package service

import (
	"context"
	"log"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/models"
	"github.com/Luismi76/cursos/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AvatarURLSigner turns a stored avatar reference into a URL clients can load.
type AvatarURLSigner interface {
	AvatarURL(ctx context.Context, ref string) (string, error)
}

// DirectoryService answers who a user is and whether they belong to a course.
type DirectoryService struct {
	courses   repository.CourseRepositoryInterface
	users     repository.UserRepositoryInterface
	userCache *cache.UserCache
	avatars   AvatarURLSigner
}

func NewDirectoryService(courses repository.CourseRepositoryInterface, users repository.UserRepositoryInterface, userCache *cache.UserCache, avatars AvatarURLSigner) *DirectoryService {
	return &DirectoryService{
		courses:   courses,
		users:     users,
		userCache: userCache,
		avatars:   avatars,
	}
}

func (s *DirectoryService) Identity(ctx context.Context, userID uuid.UUID) (*models.Identity, error) {
	if cached, ok := s.userCache.GetIdentity(userID); ok {
		return cached, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrInvalidReference, "user %s", userID)
	}
	if err != nil {
		return nil, storageError(err, "find user")
	}

	identity := &models.Identity{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.Avatar,
		Role:      user.Role,
	}
	if s.avatars != nil && user.Avatar != "" {
		if url, err := s.avatars.AvatarURL(ctx, user.Avatar); err != nil {
			log.Printf("Failed to sign avatar for user %s: %v", userID, err)
		} else {
			identity.AvatarURL = url
		}
	}

	if err := s.userCache.SetIdentity(identity); err != nil {
		log.Printf("Failed to cache identity for user %s: %v", userID, err)
	}
	return identity, nil
}

// Authorize resolves the caller and checks course access. Admins may access
// every course; everyone else must teach it or be enrolled.
func (s *DirectoryService) Authorize(ctx context.Context, courseID, userID uuid.UUID) (*models.Identity, error) {
	identity, err := s.Identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return nil, storageError(err, "find course")
	}
	if !exists {
		return nil, errors.Wrapf(ErrInvalidReference, "course %s", courseID)
	}

	if identity.IsAdmin() {
		return identity, nil
	}

	member, err := s.courses.IsMember(ctx, courseID, userID)
	if err != nil {
		return nil, storageError(err, "check membership")
	}
	if !member {
		return nil, ErrUnauthorized
	}
	return identity, nil
}
