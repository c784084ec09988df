package mock

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/jon4hz/newsdesk/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// News storage
	news       map[uint]*database.News
	nextNewsID uint

	// Error simulation
	CreateUserError  error
	GetUserError     error
	UpdateUserError  error
	DeleteUserError  error
	CreateNewsError  error
	GetNewsError     error
	UpdateNewsError  error
	DeleteNewsError  error
	TransactionError error
	StatsError       error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:      make(map[uint]*database.User),
		nextUserID: 1,
		news:       make(map[uint]*database.News),
		nextNewsID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.news = make(map[uint]*database.News)
	m.nextNewsID = 1

	m.CreateUserError = nil
	m.GetUserError = nil
	m.UpdateUserError = nil
	m.DeleteUserError = nil
	m.CreateNewsError = nil
	m.GetNewsError = nil
	m.UpdateNewsError = nil
	m.DeleteNewsError = nil
	m.TransactionError = nil
	m.StatsError = nil
}

// Transaction runs fn against the mock and restores the previous state if fn fails.
func (m *MockDB) Transaction(_ context.Context, fn func(tx database.DB) error) error {
	if m.TransactionError != nil {
		return m.TransactionError
	}

	m.mu.RLock()
	users := cloneMap(m.users)
	news := cloneMap(m.news)
	nextUserID, nextNewsID := m.nextUserID, m.nextNewsID
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users, m.news = users, news
		m.nextUserID, m.nextNewsID = nextUserID, nextNewsID
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[T any](src map[uint]*T) map[uint]*T {
	dst := make(map[uint]*T, len(src))
	for k, v := range src {
		c := *v
		dst[k] = &c
	}
	return dst
}

func (m *MockDB) Stats(_ context.Context) (*database.Stats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.Stats{Users: len(m.users), News: len(m.news)}
	for _, n := range m.news {
		if n.IsPrivate {
			stats.PrivateNews++
		}
	}
	return stats, nil
}

func (m *MockDB) Close() error {
	return nil
}

// User methods

func (m *MockDB) CreateUser(_ context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.Email != nil {
		for _, u := range m.users {
			if u.Email != nil && *u.Email == *user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
	}

	user.ID = m.nextUserID
	m.nextUserID++
	if user.Level == 0 {
		user.Level = 1
	}
	if user.CreateData.IsZero() {
		user.CreateData = time.Now()
	}
	stored := *user
	stored.News = nil
	m.users[user.ID] = &stored
	return nil
}

func (m *MockDB) GetUserByID(_ context.Context, id uint) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user := *u
	return &user, nil
}

func (m *MockDB) GetUserWithNews(ctx context.Context, id uint) (*database.User, error) {
	user, err := m.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range m.sortedNews() {
		if n.UserID == id {
			user.News = append(user.News, *n)
		}
	}
	return user, nil
}

func (m *MockDB) GetUserByEmail(_ context.Context, email string) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetAllUsers(_ context.Context) ([]database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := sortedKeys(m.users)
	users := make([]database.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *m.users[id])
	}
	return users, nil
}

func (m *MockDB) UpdateUser(_ context.Context, user *database.User) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if user.Email != nil {
		for id, u := range m.users {
			if id != user.ID && u.Email != nil && *u.Email == *user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	updated := *user
	updated.CreateData = existing.CreateData
	updated.News = nil
	m.users[user.ID] = &updated
	return nil
}

func (m *MockDB) DeleteUser(_ context.Context, user *database.User) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, user.ID)
	return nil
}

// News methods

func (m *MockDB) CreateNews(_ context.Context, news *database.News) error {
	if m.CreateNewsError != nil {
		return m.CreateNewsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	news.ID = m.nextNewsID
	m.nextNewsID++
	if news.CreatedAt.IsZero() {
		news.CreatedAt = time.Now()
	}
	stored := *news
	stored.User = nil
	m.news[news.ID] = &stored
	return nil
}

func (m *MockDB) GetNewsByID(_ context.Context, id uint) (*database.News, error) {
	if m.GetNewsError != nil {
		return nil, m.GetNewsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.news[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withUser(n), nil
}

func (m *MockDB) GetNewsByIDForUser(ctx context.Context, id, userID uint) (*database.News, error) {
	news, err := m.GetNewsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if news.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return news, nil
}

func (m *MockDB) GetAllNews(_ context.Context) ([]database.News, error) {
	if m.GetNewsError != nil {
		return nil, m.GetNewsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.sortedNews()
	news := make([]database.News, 0, len(sorted))
	for _, n := range sorted {
		news = append(news, *m.withUser(n))
	}
	return news, nil
}

func (m *MockDB) UpdateNews(_ context.Context, news *database.News) error {
	if m.UpdateNewsError != nil {
		return m.UpdateNewsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.news[news.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	updated := *news
	updated.CreatedAt = existing.CreatedAt
	updated.User = nil
	m.news[news.ID] = &updated
	return nil
}

func (m *MockDB) DeleteNews(_ context.Context, news *database.News) error {
	if m.DeleteNewsError != nil {
		return m.DeleteNewsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.news[news.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.news, news.ID)
	return nil
}

// Helper methods for testing

// AddUser stores a user directly, bypassing error simulation.
func (m *MockDB) AddUser(user database.User) uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == 0 {
		user.ID = m.nextUserID
	}
	if user.ID >= m.nextUserID {
		m.nextUserID = user.ID + 1
	}
	if user.Level == 0 {
		user.Level = 1
	}
	m.users[user.ID] = &user
	return user.ID
}

// AddNews stores a news item directly, bypassing error simulation.
func (m *MockDB) AddNews(news database.News) uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	if news.ID == 0 {
		news.ID = m.nextNewsID
	}
	if news.ID >= m.nextNewsID {
		m.nextNewsID = news.ID + 1
	}
	news.User = nil
	m.news[news.ID] = &news
	return news.ID
}

// NewsSnapshot returns a copy of all stored news keyed by ID.
func (m *MockDB) NewsSnapshot() map[uint]database.News {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uint]database.News, len(m.news))
	for id, n := range maps.All(m.news) {
		out[id] = *n
	}
	return out
}

// withUser must be called with the lock held.
func (m *MockDB) withUser(n *database.News) *database.News {
	news := *n
	if u, ok := m.users[n.UserID]; ok {
		user := *u
		news.User = &user
	}
	return &news
}

// sortedNews must be called with the lock held.
func (m *MockDB) sortedNews() []*database.News {
	ids := sortedKeys(m.news)
	out := make([]*database.News, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.news[id])
	}
	return out
}

func sortedKeys[T any](src map[uint]*T) []uint {
	ids := make([]uint, 0, len(src))
	for id := range src {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
