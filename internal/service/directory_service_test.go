package service

import (
	"context"
	"testing"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSigner struct {
	err error
}

func (s stubSigner) AvatarURL(ctx context.Context, ref string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example.com/" + ref, nil
}

func TestDirectoryIdentitySignsAvatar(t *testing.T) {
	db := NewMockChatDB()
	id := db.AddUser("Ana", models.RoleStudent)
	db.users[id].Avatar = "avatars/ana.jpg"

	dir := NewDirectoryService(&MockCourseRepository{db: db}, &MockUserRepository{db: db}, nil, stubSigner{})
	identity, err := dir.Identity(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Ana", identity.Name)
	assert.Equal(t, "https://signed.example.com/avatars/ana.jpg", identity.AvatarURL)
}

func TestDirectoryIdentityKeepsRawAvatarWhenSigningFails(t *testing.T) {
	db := NewMockChatDB()
	id := db.AddUser("Ana", models.RoleStudent)
	db.users[id].Avatar = "avatars/ana.jpg"

	dir := NewDirectoryService(&MockCourseRepository{db: db}, &MockUserRepository{db: db}, nil, stubSigner{err: errors.New("no bucket")})
	identity, err := dir.Identity(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "avatars/ana.jpg", identity.AvatarURL)
}

func TestDirectoryAuthorize(t *testing.T) {
	f := newFixture()
	dir := NewDirectoryService(&MockCourseRepository{db: f.db}, &MockUserRepository{db: f.db}, nil, nil)

	tests := []struct {
		name   string
		course uuid.UUID
		user   uuid.UUID
		want   error
	}{
		{"teacher", f.course, f.alice, nil},
		{"enrolled student", f.course, f.bob, nil},
		{"admin", f.course, f.admin, nil},
		{"outsider", f.course, f.eve, ErrUnauthorized},
		{"missing course", uuid.New(), f.bob, ErrInvalidReference},
		{"missing user", f.course, uuid.New(), ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := dir.Authorize(context.Background(), tt.course, tt.user)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.user, identity.ID)
				return
			}
			assert.Nil(t, identity)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestDirectoryStorageFailure(t *testing.T) {
	db := NewMockChatDB()
	id := db.AddUser("Ana", models.RoleStudent)
	db.failReads = errors.New("too many connections")

	dir := NewDirectoryService(&MockCourseRepository{db: db}, &MockUserRepository{db: db}, nil, nil)
	_, err := dir.Authorize(context.Background(), uuid.New(), id)

	assert.True(t, errors.Is(err, ErrStorageUnavailable))
}
