package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/events"
	"github.com/Luismi76/cursos/internal/models"
	"github.com/Luismi76/cursos/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type cursorKey struct {
	course uuid.UUID
	user   uuid.UUID
}

type mockCourse struct {
	teacher  uuid.UUID
	students map[uuid.UUID]bool
}

// MockChatDB is an in-memory stand-in for the chat tables. Every repository
// mock below shares one instance so transactions can snapshot and restore it.
// Transactions are serialized by txMu; every single read or write holds dataMu.
type MockChatDB struct {
	txMu     sync.Mutex
	dataMu   sync.Mutex
	clock    time.Time
	users    map[uuid.UUID]*models.User
	courses  map[uuid.UUID]*mockCourse
	messages []models.CourseMessage
	cursors  map[cursorKey]models.ReadCursor

	failWrites error
	failReads  error
}

func NewMockChatDB() *MockChatDB {
	return &MockChatDB{
		clock:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		users:   make(map[uuid.UUID]*models.User),
		courses: make(map[uuid.UUID]*mockCourse),
		cursors: make(map[cursorKey]models.ReadCursor),
	}
}

func (db *MockChatDB) AddUser(name string, role models.UserRole) uuid.UUID {
	id := uuid.New()
	db.users[id] = &models.User{ID: id, Name: name, Role: role}
	return id
}

func (db *MockChatDB) AddCourse(teacher uuid.UUID, students ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	c := &mockCourse{teacher: teacher, students: make(map[uuid.UUID]bool)}
	for _, s := range students {
		c.students[s] = true
	}
	db.courses[id] = c
	return id
}

// Seed stores a message with an explicit position.
func (db *MockChatDB) Seed(courseID, senderID uuid.UUID, id uuid.UUID, sentAt time.Time) {
	db.messages = append(db.messages, models.CourseMessage{
		ID:       id,
		CourseID: courseID,
		SenderID: senderID,
		Content:  "seeded",
		SentAt:   sentAt,
	})
}

func (db *MockChatDB) lock() func() {
	db.dataMu.Lock()
	return db.dataMu.Unlock
}

func (db *MockChatDB) sorted(courseID uuid.UUID) []models.CourseMessage {
	var out []models.CourseMessage
	for _, m := range db.messages {
		if m.CourseID == courseID {
			if u, ok := db.users[m.SenderID]; ok {
				m.Sender = *u
			}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position().Before(out[j].Position()) })
	return out
}

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct{ db *MockChatDB }

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer m.db.lock()()
	if m.db.failReads != nil {
		return nil, m.db.failReads
	}
	if u, ok := m.db.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// MockCourseRepository implements repository.CourseRepositoryInterface.
type MockCourseRepository struct{ db *MockChatDB }

func (m *MockCourseRepository) Exists(ctx context.Context, courseID uuid.UUID) (bool, error) {
	defer m.db.lock()()
	if m.db.failReads != nil {
		return false, m.db.failReads
	}
	_, ok := m.db.courses[courseID]
	return ok, nil
}

func (m *MockCourseRepository) IsMember(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	defer m.db.lock()()
	c, ok := m.db.courses[courseID]
	if !ok {
		return false, nil
	}
	return c.teacher == userID || c.students[userID], nil
}

// MockCourseMessageRepository implements repository.CourseMessageRepositoryInterface.
type MockCourseMessageRepository struct{ db *MockChatDB }

func (m *MockCourseMessageRepository) Append(ctx context.Context, message *models.CourseMessage) error {
	defer m.db.lock()()
	if m.db.failWrites != nil {
		return m.db.failWrites
	}
	m.db.clock = m.db.clock.Add(time.Millisecond)
	message.ID = uuid.New()
	message.SentAt = m.db.clock
	m.db.messages = append(m.db.messages, *message)
	return nil
}

func (m *MockCourseMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CourseMessage, error) {
	defer m.db.lock()()
	for _, msg := range m.db.messages {
		if msg.ID == id {
			if u, ok := m.db.users[msg.SenderID]; ok {
				msg.Sender = *u
			}
			return &msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockCourseMessageRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMessage, error) {
	defer m.db.lock()()
	if m.db.failReads != nil {
		return nil, m.db.failReads
	}
	return m.db.sorted(courseID), nil
}

func (m *MockCourseMessageRepository) FindLatest(ctx context.Context, courseID uuid.UUID) (*models.CourseMessage, error) {
	defer m.db.lock()()
	all := m.db.sorted(courseID)
	if len(all) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := all[len(all)-1]
	return &latest, nil
}

func (m *MockCourseMessageRepository) ListIDsAfter(ctx context.Context, courseID uuid.UUID, after, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error) {
	defer m.db.lock()()
	return m.db.unread(courseID, &after, &through, excludingSender), nil
}

func (m *MockCourseMessageRepository) CountAfter(ctx context.Context, courseID uuid.UUID, after models.MessagePosition, excludingSender uuid.UUID) (int64, error) {
	defer m.db.lock()()
	return int64(len(m.db.unread(courseID, &after, nil, excludingSender))), nil
}

func (m *MockCourseMessageRepository) ListIDsExcludingSender(ctx context.Context, courseID uuid.UUID, through models.MessagePosition, excludingSender uuid.UUID) ([]uuid.UUID, error) {
	defer m.db.lock()()
	return m.db.unread(courseID, nil, &through, excludingSender), nil
}

func (m *MockCourseMessageRepository) CountExcludingSender(ctx context.Context, courseID uuid.UUID, excludingSender uuid.UUID) (int64, error) {
	defer m.db.lock()()
	return int64(len(m.db.unread(courseID, nil, nil, excludingSender))), nil
}

// unread lists ids from others strictly after after and at or before through.
// A nil bound is open.
func (db *MockChatDB) unread(courseID uuid.UUID, after, through *models.MessagePosition, excludingSender uuid.UUID) []uuid.UUID {
	ids := []uuid.UUID{}
	for _, msg := range db.sorted(courseID) {
		pos := msg.Position()
		if msg.SenderID == excludingSender {
			continue
		}
		if after != nil && !after.Before(pos) {
			continue
		}
		if through != nil && through.Before(pos) {
			continue
		}
		ids = append(ids, msg.ID)
	}
	return ids
}

// MockReadCursorRepository implements repository.ReadCursorRepositoryInterface.
type MockReadCursorRepository struct{ db *MockChatDB }

func (m *MockReadCursorRepository) Find(ctx context.Context, courseID, userID uuid.UUID) (*models.ReadCursor, error) {
	defer m.db.lock()()
	c, ok := m.db.cursors[cursorKey{courseID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *MockReadCursorRepository) Upsert(ctx context.Context, courseID, userID, lastReadMessageID uuid.UUID) (*models.ReadCursor, error) {
	defer m.db.lock()()
	if m.db.failWrites != nil {
		return nil, m.db.failWrites
	}
	key := cursorKey{courseID, userID}
	c, ok := m.db.cursors[key]
	if !ok {
		c = models.ReadCursor{CourseID: courseID, UserID: userID, CreatedAt: m.db.clock}
	}
	id := lastReadMessageID
	c.LastReadMessageID = &id
	c.UpdatedAt = m.db.clock
	m.db.cursors[key] = c
	return &c, nil
}

// MockTxRunner restores the database snapshot when fn fails.
type MockTxRunner struct {
	db    *MockChatDB
	calls int
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(stores repository.ChatStores) error) error {
	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()
	m.calls++

	unlock := m.db.lock()
	messages := append([]models.CourseMessage(nil), m.db.messages...)
	cursors := make(map[cursorKey]models.ReadCursor, len(m.db.cursors))
	for k, v := range m.db.cursors {
		cursors[k] = v
	}
	unlock()

	err := fn(repository.ChatStores{
		Messages: &MockCourseMessageRepository{db: m.db},
		Cursors:  &MockReadCursorRepository{db: m.db},
	})
	if err != nil {
		defer m.db.lock()()
		m.db.messages = messages
		m.db.cursors = cursors
	}
	return err
}

// RecordingPublisher keeps every published event in order.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// fixture wires a CourseChatService over the mocks. Alice teaches the
// course, Bob and Carol are enrolled, Eve is an outsider and Root is an admin.
type fixture struct {
	db        *MockChatDB
	tx        *MockTxRunner
	publisher *RecordingPublisher
	service   *CourseChatService

	course                        uuid.UUID
	alice, bob, carol, eve, admin uuid.UUID
}

func newFixture() *fixture {
	return newFixtureWith(nil, nil)
}

// newFixtureWith lets a test supply a message cache and wrap the message
// repository used outside transactions.
func newFixtureWith(messageCache *cache.MessageCache, wrap func(*MockCourseMessageRepository) repository.CourseMessageRepositoryInterface) *fixture {
	db := NewMockChatDB()
	f := &fixture{db: db, publisher: &RecordingPublisher{}}
	f.alice = db.AddUser("Alice", models.RoleTeacher)
	f.bob = db.AddUser("Bob", models.RoleStudent)
	f.carol = db.AddUser("Carol", models.RoleStudent)
	f.eve = db.AddUser("Eve", models.RoleStudent)
	f.admin = db.AddUser("Root", models.RoleAdmin)
	f.course = db.AddCourse(f.alice, f.bob, f.carol)

	var messages repository.CourseMessageRepositoryInterface = &MockCourseMessageRepository{db: db}
	if wrap != nil {
		messages = wrap(&MockCourseMessageRepository{db: db})
	}

	f.tx = &MockTxRunner{db: db}
	directory := NewDirectoryService(&MockCourseRepository{db: db}, &MockUserRepository{db: db}, nil, nil)
	f.service = NewCourseChatService(
		directory,
		messages,
		&MockReadCursorRepository{db: db},
		f.tx,
		f.publisher,
		messageCache,
	)
	return f
}
