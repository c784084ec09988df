package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jon4hz/newsdesk/internal/database"
	dbmock "github.com/jon4hz/newsdesk/internal/database/mock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeCache struct {
	mu          sync.Mutex
	users       map[uint]database.User
	invalidated []uint
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: make(map[uint]database.User)}
}

func (f *fakeCache) Get(_ context.Context, id uint) (*database.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (f *fakeCache) Set(_ context.Context, user *database.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
}

func (f *fakeCache) Invalidate(_ context.Context, id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	f.invalidated = append(f.invalidated, id)
}

func validUser(email string) UserFields {
	return UserFields{
		Name:          lo.ToPtr("A"),
		Email:         lo.ToPtr(email),
		Password:      lo.ToPtr("p"),
		PasswordAgain: lo.ToPtr("p"),
		About:         lo.ToPtr(""),
	}
}

func validNews(userID uint) NewsFields {
	return NewsFields{
		Title:     lo.ToPtr("T"),
		Content:   lo.ToPtr("C"),
		UserID:    lo.ToPtr(userID),
		IsPrivate: lo.ToPtr(false),
	}
}

type ServiceTestSuite struct {
	suite.Suite
	db    *database.Client
	cache *fakeCache
	svc   *Service
	ctx   context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	var err error
	s.db, err = database.New(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.cache = newFakeCache()
	s.svc = New(s.db, s.cache)
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *ServiceTestSuite) createUser(email string) uint {
	id, err := s.svc.CreateUser(s.ctx, validUser(email))
	s.Require().NoError(err)
	return id
}

func (s *ServiceTestSuite) TestCreateNewsRoundTrip() {
	uid := s.createUser("a@x.com")
	for _, private := range []bool{false, true} {
		f := validNews(uid)
		f.IsPrivate = lo.ToPtr(private)
		id, err := s.svc.CreateNews(s.ctx, f)
		s.Require().NoError(err)

		got, err := s.svc.GetNews(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("T", got.Title)
		s.Equal("C", got.Content)
		s.Equal(uid, got.UserID)
		s.Equal(private, got.IsPrivate)
	}
}

func (s *ServiceTestSuite) TestCreateNewsMissingFields() {
	tests := []struct {
		name   string
		mutate func(f *NewsFields)
	}{
		{"missing title", func(f *NewsFields) { f.Title = nil }},
		{"missing content", func(f *NewsFields) { f.Content = nil }},
		{"missing user", func(f *NewsFields) { f.UserID = nil }},
		{"missing is_private", func(f *NewsFields) { f.IsPrivate = nil }},
		{"blank title", func(f *NewsFields) { f.Title = lo.ToPtr("  ") }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			f := validNews(1)
			tt.mutate(&f)
			_, err := s.svc.CreateNews(s.ctx, f)
			s.ErrorIs(err, ErrValidation)
		})
	}

	news, err := s.svc.ListNews(s.ctx)
	s.Require().NoError(err)
	s.Empty(news)
}

func (s *ServiceTestSuite) TestCreateNewsAcceptsZeroValues() {
	f := validNews(1)
	f.Content = lo.ToPtr("")
	_, err := s.svc.CreateNews(s.ctx, f)
	s.NoError(err)
}

func (s *ServiceTestSuite) TestGetNewsNotFound() {
	_, err := s.svc.GetNews(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestUpdateNewsPartial() {
	uid := s.createUser("a@x.com")
	id, err := s.svc.CreateNews(s.ctx, validNews(uid))
	s.Require().NoError(err)
	before, err := s.svc.GetNews(s.ctx, id)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.UpdateNews(s.ctx, id, NewsFields{Title: lo.ToPtr("New")}))

	after, err := s.svc.GetNews(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("New", after.Title)
	s.Equal(before.Content, after.Content)
	s.Equal(before.UserID, after.UserID)
	s.Equal(before.IsPrivate, after.IsPrivate)
	s.Equal(before.CreatedAt, after.CreatedAt)
}

func (s *ServiceTestSuite) TestUpdateNewsEmptyPatch() {
	uid := s.createUser("a@x.com")
	id, err := s.svc.CreateNews(s.ctx, validNews(uid))
	s.Require().NoError(err)
	before, err := s.svc.GetNews(s.ctx, id)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.UpdateNews(s.ctx, id, NewsFields{}))

	after, err := s.svc.GetNews(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *ServiceTestSuite) TestUpdateNewsNotFound() {
	err := s.svc.UpdateNews(s.ctx, 99, NewsFields{Title: lo.ToPtr("x")})
	s.ErrorIs(err, ErrNotFound)
	err = s.svc.UpdateNews(s.ctx, 99, NewsFields{})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestDeleteNews() {
	uid := s.createUser("a@x.com")
	id, err := s.svc.CreateNews(s.ctx, validNews(uid))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteNews(s.ctx, id))
	_, err = s.svc.GetNews(s.ctx, id)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.DeleteNews(s.ctx, id), ErrNotFound)
}

func (s *ServiceTestSuite) TestOwnedNews() {
	owner := s.createUser("owner@x.com")
	other := s.createUser("other@x.com")
	id, err := s.svc.CreateNews(s.ctx, validNews(owner))
	s.Require().NoError(err)

	_, err = s.svc.GetOwnedNews(s.ctx, id, other)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.UpdateOwnedNews(s.ctx, id, other, NewsFields{Title: lo.ToPtr("hijack")}), ErrNotFound)
	s.ErrorIs(s.svc.DeleteOwnedNews(s.ctx, id, other), ErrNotFound)

	got, err := s.svc.GetNews(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("T", got.Title)

	s.Require().NoError(s.svc.UpdateOwnedNews(s.ctx, id, owner, NewsFields{Title: lo.ToPtr("mine")}))
	got, err = s.svc.GetOwnedNews(s.ctx, id, owner)
	s.Require().NoError(err)
	s.Equal("mine", got.Title)
	s.Require().NoError(s.svc.DeleteOwnedNews(s.ctx, id, owner))
}

func (s *ServiceTestSuite) TestListNewsIncludesPrivate() {
	uid := s.createUser("a@x.com")
	pub := validNews(uid)
	priv := validNews(uid)
	priv.IsPrivate = lo.ToPtr(true)
	_, err := s.svc.CreateNews(s.ctx, pub)
	s.Require().NoError(err)
	_, err = s.svc.CreateNews(s.ctx, priv)
	s.Require().NoError(err)

	news, err := s.svc.ListNews(s.ctx)
	s.Require().NoError(err)
	s.Len(news, 2)
}

func (s *ServiceTestSuite) TestCreateUserValidation() {
	tests := []struct {
		name   string
		mutate func(f *UserFields)
	}{
		{"missing name", func(f *UserFields) { f.Name = nil }},
		{"missing email", func(f *UserFields) { f.Email = nil }},
		{"missing about", func(f *UserFields) { f.About = nil }},
		{"missing password", func(f *UserFields) { f.Password = nil }},
		{"missing confirmation", func(f *UserFields) { f.PasswordAgain = nil }},
		{"password mismatch", func(f *UserFields) { f.PasswordAgain = lo.ToPtr("q") }},
		{"blank email", func(f *UserFields) { f.Email = lo.ToPtr(" ") }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			f := validUser("a@x.com")
			tt.mutate(&f)
			_, err := s.svc.CreateUser(s.ctx, f)
			s.ErrorIs(err, ErrValidation)
		})
	}
}

func (s *ServiceTestSuite) TestCreateUserConflict() {
	id := s.createUser("a@x.com")
	before, err := s.svc.GetUser(s.ctx, id)
	s.Require().NoError(err)

	dup := validUser("a@x.com")
	dup.Name = lo.ToPtr("B")
	dup.Password = lo.ToPtr("other")
	dup.PasswordAgain = lo.ToPtr("other")
	_, err = s.svc.CreateUser(s.ctx, dup)
	s.ErrorIs(err, ErrConflict)

	after, err := s.svc.GetUser(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(before.Name, after.Name)
	s.Equal(before.HashedPassword, after.HashedPassword)

	users, err := s.svc.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *ServiceTestSuite) TestUpdateUser() {
	id := s.createUser("a@x.com")

	s.Require().NoError(s.svc.UpdateUser(s.ctx, id, UserFields{About: lo.ToPtr("hello")}))
	u, err := s.svc.GetUser(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("hello", u.About)
	s.Equal("A", u.Name)
	s.True(u.CheckPassword("p"))

	s.Require().NoError(s.svc.UpdateUser(s.ctx, id, UserFields{Password: lo.ToPtr("new")}))
	u, err = s.svc.GetUser(s.ctx, id)
	s.Require().NoError(err)
	s.True(u.CheckPassword("new"))
	s.False(u.CheckPassword("p"))
	s.NotEqual("new", u.HashedPassword)

	s.Contains(s.cache.invalidated, id)
}

func (s *ServiceTestSuite) TestUpdateUserEmailConflict() {
	a := s.createUser("a@x.com")
	s.createUser("b@x.com")

	err := s.svc.UpdateUser(s.ctx, a, UserFields{Email: lo.ToPtr("b@x.com")})
	s.ErrorIs(err, ErrConflict)

	// keeping the own address is fine
	s.NoError(s.svc.UpdateUser(s.ctx, a, UserFields{Email: lo.ToPtr("a@x.com")}))
}

func (s *ServiceTestSuite) TestUpdateUserNotFound() {
	s.ErrorIs(s.svc.UpdateUser(s.ctx, 7, UserFields{Name: lo.ToPtr("x")}), ErrNotFound)
}

func (s *ServiceTestSuite) TestDeleteUser() {
	id := s.createUser("a@x.com")
	newsID, err := s.svc.CreateNews(s.ctx, validNews(id))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteUser(s.ctx, id))
	_, err = s.svc.GetUser(s.ctx, id)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.DeleteUser(s.ctx, id), ErrNotFound)
	s.Contains(s.cache.invalidated, id)

	// news of deleted users are kept
	_, err = s.svc.GetNews(s.ctx, newsID)
	s.NoError(err)
}

func (s *ServiceTestSuite) TestAuthenticate() {
	id := s.createUser("a@x.com")

	u, err := s.svc.Authenticate(s.ctx, "a@x.com", "p")
	s.Require().NoError(err)
	s.Equal(id, u.ID)

	_, errWrong := s.svc.Authenticate(s.ctx, "a@x.com", "wrong")
	_, errUnknown := s.svc.Authenticate(s.ctx, "nobody@x.com", "p")
	s.ErrorIs(errWrong, ErrAuth)
	s.ErrorIs(errUnknown, ErrAuth)
	s.Equal(errWrong.Error(), errUnknown.Error())
}

func (s *ServiceTestSuite) TestCurrentUserCaches() {
	id := s.createUser("a@x.com")

	u, err := s.svc.CurrentUser(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(u)
	_, cached := s.cache.Get(s.ctx, id)
	s.True(cached)

	missing, err := s.svc.CurrentUser(s.ctx, 999)
	s.NoError(err)
	s.Nil(missing)
}

func (s *ServiceTestSuite) TestSetUserLevel() {
	id := s.createUser("a@x.com")
	s.Require().NoError(s.svc.SetUserLevel(s.ctx, "a@x.com", 2))

	u, err := s.svc.GetUser(s.ctx, id)
	s.Require().NoError(err)
	s.True(u.IsAdmin())

	s.ErrorIs(s.svc.SetUserLevel(s.ctx, "a@x.com", 0), ErrValidation)
	s.ErrorIs(s.svc.SetUserLevel(s.ctx, "nobody@x.com", 2), ErrNotFound)
}

func (s *ServiceTestSuite) TestStats() {
	uid := s.createUser("a@x.com")
	_, err := s.svc.CreateNews(s.ctx, validNews(uid))
	s.Require().NoError(err)

	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Users)
	s.Equal(1, stats.News)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestUpdateNews_PersistenceFailureRollsBack(t *testing.T) {
	db := dbmock.NewMockDB()
	svc := New(db, nil)
	ctx := context.Background()

	id := db.AddNews(database.News{Title: "T", Content: "C", UserID: 1})
	db.UpdateNewsError = errors.New("disk I/O error")

	err := svc.UpdateNews(ctx, id, NewsFields{Title: lo.ToPtr("changed")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, Message(err), "disk I/O error")

	assert.Equal(t, "T", db.NewsSnapshot()[id].Title)
}

func TestDeleteUser_PersistenceFailure(t *testing.T) {
	db := dbmock.NewMockDB()
	svc := New(db, nil)
	id := db.AddUser(database.User{Name: "A"})
	db.DeleteUserError = errors.New("locked")

	err := svc.DeleteUser(context.Background(), id)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestCurrentUser_LookupFailure(t *testing.T) {
	db := dbmock.NewMockDB()
	db.GetUserError = errors.New("broken")
	svc := New(db, nil)

	_, err := svc.CurrentUser(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInternal)
}

// slowUserDB runs onRead after a user row was read and before it is returned.
type slowUserDB struct {
	database.DB
	onRead func()
}

func (d *slowUserDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	user, err := d.DB.GetUserByID(ctx, id)
	if d.onRead != nil {
		onRead := d.onRead
		d.onRead = nil
		onRead()
	}
	return user, err
}

func TestCurrentUser_StaleReadIsNotCached(t *testing.T) {
	mock := dbmock.NewMockDB()
	id := mock.AddUser(database.User{Name: "old", Email: lo.ToPtr("a@x.com")})
	db := &slowUserDB{DB: mock}
	cache := newFakeCache()
	svc := New(db, cache)
	ctx := context.Background()

	db.onRead = func() {
		require.NoError(t, svc.UpdateUser(ctx, id, UserFields{Name: lo.ToPtr("new")}))
	}

	user, err := svc.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "old", user.Name)

	_, cached := cache.Get(ctx, id)
	assert.False(t, cached)

	user, err = svc.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", user.Name)
	cachedUser, cached := cache.Get(ctx, id)
	require.True(t, cached)
	assert.Equal(t, "new", cachedUser.Name)
}

func TestError(t *testing.T) {
	err := validationError("bad")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "bad", Message(err))

	wrapped := internalError("failed", errors.New("cause"))
	assert.ErrorIs(t, wrapped, ErrInternal)
	assert.Equal(t, "failed: cause", Message(wrapped))

	assert.Equal(t, ErrInternal.Error(), Message(errors.New("foreign")))
}
