package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/mail"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/reviews"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newAuthz(t *testing.T) *authz.Engine {
	t.Helper()
	e, err := authz.NewEngine(discardLogger())
	require.NoError(t, err)
	return e
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// --- mail ---

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Name() string { return "fake" }

// --- users ---

type fakeUsersRepo struct {
	mu          sync.Mutex
	rows        map[int64]models.User
	nextID      int64
	activations int
	err         error
	// beforeActivate runs once, outside the lock, ahead of the next Activate.
	beforeActivate func()
}

func newFakeUsersRepo(seed ...models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{rows: map[int64]models.User{}}
	for _, u := range seed {
		f.nextID++
		if u.ID == 0 {
			u.ID = f.nextID
		}
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) find(match func(models.User) bool) (*models.User, bool) {
	for _, u := range f.rows {
		if match(u) {
			c := u
			return &c, true
		}
	}
	return nil, false
}

func (f *fakeUsersRepo) GetOrCreate(_ context.Context, username, email string) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if u, ok := f.find(func(u models.User) bool { return u.Username == username && u.Email == email }); ok {
		return u, false, nil
	}
	if _, ok := f.find(func(u models.User) bool { return u.Username == username }); ok {
		return nil, false, common.NewConflictError("username", users.MsgUsernameTaken)
	}
	if _, ok := f.find(func(u models.User) bool { return u.Email == email }); ok {
		return nil, false, common.NewConflictError("email", users.MsgEmailTaken)
	}
	f.nextID++
	u := models.User{ID: f.nextID, Username: username, Email: email, Role: models.RoleUser, DateJoined: time.Now()}
	f.rows[u.ID] = u
	return &u, true, nil
}

func (f *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.find(func(u models.User) bool { return u.Username == user.Username }); ok {
		return nil, common.NewConflictError("username", users.MsgUsernameTaken)
	}
	if _, ok := f.find(func(u models.User) bool { return u.Email == user.Email }); ok {
		return nil, common.NewConflictError("email", users.MsgEmailTaken)
	}
	f.nextID++
	u := *user
	u.ID = f.nextID
	f.rows[u.ID] = u
	return &u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.find(func(u models.User) bool { return u.Username == username }); ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsersRepo) List(_ context.Context, search string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.rows {
		if search == "" || strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsersRepo) Activate(_ context.Context, from *models.User, at time.Time) (*models.User, error) {
	if hook := f.beforeActivate; hook != nil {
		f.beforeActivate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[from.ID]
	if !ok || u.IsActive != from.IsActive || !sameTime(u.LastLogin, from.LastLogin) {
		return nil, common.ErrorNotFound
	}
	u.IsActive = true
	u.LastLogin = &at
	f.rows[from.ID] = u
	f.activations++
	return &u, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, id int64, p models.UserPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Username != nil {
		if other, ok := f.find(func(o models.User) bool { return o.Username == *p.Username }); ok && other.ID != id {
			return nil, common.NewConflictError("username", users.MsgUsernameTaken)
		}
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	f.rows[id] = u
	return &u, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeUsersRepo) SetElevation(_ context.Context, username string, staff, superuser bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.find(func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.IsStaff, u.IsSuperuser = staff, superuser
	f.rows[u.ID] = *u
	return u, nil
}

// --- catalog ---

type fakeCatalogRepo struct {
	categories map[string]models.Category
	genres     map[string]models.Genre
	titles     map[int64]models.Title
	titleGenre map[int64][]int64
	nextID     int64
	err        error
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: map[string]models.Category{},
		genres:     map[string]models.Genre{},
		titles:     map[int64]models.Title{},
		titleGenre: map[int64][]int64{},
	}
}

func (f *fakeCatalogRepo) id() int64 { f.nextID++; return f.nextID }

func (f *fakeCatalogRepo) ListCategories(context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalogRepo) CreateCategory(_ context.Context, name, slug string) (*models.Category, error) {
	if _, ok := f.categories[slug]; ok {
		return nil, common.NewConflictError("slug", catalog.MsgSlugTaken)
	}
	c := models.Category{ID: f.id(), Name: name, Slug: slug}
	f.categories[slug] = c
	return &c, nil
}

func (f *fakeCatalogRepo) GetCategory(_ context.Context, slug string) (*models.Category, error) {
	c, ok := f.categories[slug]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (f *fakeCatalogRepo) DeleteCategory(_ context.Context, slug string) error {
	c, ok := f.categories[slug]
	if !ok {
		return common.ErrorNotFound
	}
	delete(f.categories, slug)
	for id, t := range f.titles {
		if t.CategoryID != nil && *t.CategoryID == c.ID {
			t.CategoryID = nil
			f.titles[id] = t
		}
	}
	return nil
}

func (f *fakeCatalogRepo) ListGenres(context.Context) ([]models.Genre, error) {
	out := []models.Genre{}
	for _, g := range f.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalogRepo) CreateGenre(_ context.Context, name, slug string) (*models.Genre, error) {
	if _, ok := f.genres[slug]; ok {
		return nil, common.NewConflictError("slug", catalog.MsgSlugTaken)
	}
	g := models.Genre{ID: f.id(), Name: name, Slug: slug}
	f.genres[slug] = g
	return &g, nil
}

func (f *fakeCatalogRepo) GetGenres(_ context.Context, slugs []string) ([]models.Genre, error) {
	out := []models.Genre{}
	for _, s := range slugs {
		if g, ok := f.genres[s]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) DeleteGenre(_ context.Context, slug string) error {
	if _, ok := f.genres[slug]; !ok {
		return common.ErrorNotFound
	}
	delete(f.genres, slug)
	return nil
}

func (f *fakeCatalogRepo) ListTitles(ctx context.Context) ([]models.Title, error) {
	out := []models.Title{}
	for id := range f.titles {
		t, _ := f.GetTitle(ctx, id)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalogRepo) GetTitle(_ context.Context, id int64) (*models.Title, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.titles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t.Genres = nil
	for _, gid := range f.titleGenre[id] {
		for _, g := range f.genres {
			if g.ID == gid {
				t.Genres = append(t.Genres, g)
			}
		}
	}
	if t.CategoryID != nil {
		for _, c := range f.categories {
			if c.ID == *t.CategoryID {
				c := c
				t.Category = &c
			}
		}
	}
	return &t, nil
}

func (f *fakeCatalogRepo) TitleExists(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.titles[id]
	return ok, nil
}

func (f *fakeCatalogRepo) CreateTitle(_ context.Context, t *models.Title) (int64, error) {
	c := *t
	c.ID = f.id()
	f.titles[c.ID] = c
	return c.ID, nil
}

func (f *fakeCatalogRepo) UpdateTitle(_ context.Context, t *models.Title) error {
	if _, ok := f.titles[t.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *t
	c.Category, c.Genres = nil, nil
	f.titles[t.ID] = c
	return nil
}

func (f *fakeCatalogRepo) SetTitleGenres(_ context.Context, titleID int64, genreIDs []int64) error {
	f.titleGenre[titleID] = append([]int64(nil), genreIDs...)
	return nil
}

func (f *fakeCatalogRepo) DeleteTitle(_ context.Context, id int64) error {
	if _, ok := f.titles[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.titles, id)
	delete(f.titleGenre, id)
	return nil
}

// --- reviews ---

type fakeReviewsRepo struct {
	reviews  map[int64]models.Review
	comments map[int64]models.Comment
	nextID   int64

	// hideExisting makes Exists miss, as when a concurrent insert lands
	// between the check and the insert.
	hideExisting bool
	creates      int
}

func newFakeReviewsRepo() *fakeReviewsRepo {
	return &fakeReviewsRepo{reviews: map[int64]models.Review{}, comments: map[int64]models.Comment{}}
}

func (f *fakeReviewsRepo) Exists(_ context.Context, titleID, authorID int64) (bool, error) {
	if f.hideExisting {
		return false, nil
	}
	for _, r := range f.reviews {
		if r.TitleID == titleID && r.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewsRepo) Create(_ context.Context, r *models.Review) (*models.Review, error) {
	for _, e := range f.reviews {
		if e.TitleID == r.TitleID && e.AuthorID == r.AuthorID {
			return nil, common.NewConflictError("non_field_errors", reviews.MsgAlreadyReviewed)
		}
	}
	f.nextID++
	c := *r
	c.ID = f.nextID
	c.PubDate = time.Now()
	f.reviews[c.ID] = c
	f.creates++
	return &c, nil
}

func (f *fakeReviewsRepo) Get(_ context.Context, titleID, reviewID int64) (*models.Review, error) {
	r, ok := f.reviews[reviewID]
	if !ok || r.TitleID != titleID {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (f *fakeReviewsRepo) List(_ context.Context, titleID int64) ([]models.Review, error) {
	out := []models.Review{}
	for _, r := range f.reviews {
		if r.TitleID == titleID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviewsRepo) Update(_ context.Context, r *models.Review) error {
	if _, ok := f.reviews[r.ID]; !ok {
		return common.ErrorNotFound
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewsRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.reviews, id)
	for cid, c := range f.comments {
		if c.ReviewID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeReviewsRepo) Rating(_ context.Context, titleID int64) (*float64, error) {
	var sum, n int
	for _, r := range f.reviews {
		if r.TitleID == titleID {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}

func (f *fakeReviewsRepo) CreateComment(_ context.Context, c *models.Comment) (*models.Comment, error) {
	f.nextID++
	cc := *c
	cc.ID = f.nextID
	f.comments[cc.ID] = cc
	return &cc, nil
}

func (f *fakeReviewsRepo) GetComment(_ context.Context, reviewID, commentID int64) (*models.Comment, error) {
	c, ok := f.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (f *fakeReviewsRepo) ListComments(_ context.Context, reviewID int64) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.ReviewID == reviewID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviewsRepo) UpdateComment(_ context.Context, c *models.Comment) error {
	if _, ok := f.comments[c.ID]; !ok {
		return common.ErrorNotFound
	}
	f.comments[c.ID] = *c
	return nil
}

func (f *fakeReviewsRepo) DeleteComment(_ context.Context, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.comments, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeCatalogRepo
	r *fakeReviewsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), c: newFakeCatalogRepo(), r: newFakeReviewsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Catalog(dbx.DBTX) catalog.Repository          { return m.c }
func (m *fakeRepoManager) Reviews(dbx.DBTX) reviews.Repository          { return m.r }

var errBoom = errors.New("boom")

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
