package testutil

import (
	"testing"
	"time"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TestJWTSecret = "test-secret-key-for-testing-only"

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// IssueToken signs an access token for userID with secret.
func (h *TestHelper) IssueToken(secret string, userID uuid.UUID, ttl time.Duration) string {
	h.t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		h.t.Fatalf("sign token: %v", err)
	}
	return signed
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(name string, role models.UserRole) *models.User {
	if name == "" {
		name = "Test User"
	}
	if role == "" {
		role = models.RoleStudent
	}
	return &models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     "test@example.com",
		Avatar:    "https://example.com/avatar.jpg",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestMessage creates a course message sent by sender.
func (h *TestHelper) CreateTestMessage(courseID uuid.UUID, sender *models.User, content string) *models.CourseMessage {
	if content == "" {
		content = "Test message"
	}
	return &models.CourseMessage{
		ID:       uuid.New(),
		CourseID: courseID,
		SenderID: sender.ID,
		Sender:   *sender,
		Content:  content,
		SentAt:   models.ServerTimestamp(),
	}
}
