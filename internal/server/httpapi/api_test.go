package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fakes embed the interface; calling a method a test did not override
// panics, which the router's Recoverer turns into a 500.

type fakeIdentity struct {
	IdentityService
	signup func(username, email string) (*services.SignupResult, error)
	login  func(username, code string) (string, error)
	tokens map[string]*models.User
	me     models.UserPatch
}

func (f *fakeIdentity) Signup(_ context.Context, username, email string) (*services.SignupResult, error) {
	return f.signup(username, email)
}

func (f *fakeIdentity) Login(_ context.Context, username, code string) (string, error) {
	return f.login(username, code)
}

func (f *fakeIdentity) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "expired" {
		return nil, common.ErrTokenExpired
	}
	u, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

func (f *fakeIdentity) Me(_ context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, common.ErrUnauthenticated
	}
	return actor, nil
}

func (f *fakeIdentity) UpdateMe(_ context.Context, actor *models.User, p models.UserPatch) (*models.User, error) {
	f.me = p
	u := *actor
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	return &u, nil
}

type fakeCatalog struct {
	CatalogService
	lastInput models.TitleInput
}

func (f *fakeCatalog) GetTitle(_ context.Context, _ *models.User, id int64) (*models.Title, error) {
	if id != 1 {
		return nil, common.ErrorNotFound
	}
	rating := 8.0
	return &models.Title{ID: 1, Name: "Solaris", Year: 1972, Rating: &rating,
		Category: &models.Category{Name: "Movies", Slug: "movies"}}, nil
}

func (f *fakeCatalog) UpdateTitle(_ context.Context, actor *models.User, id int64, in models.TitleInput) (*models.Title, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	f.lastInput = in
	return &models.Title{ID: id, Name: "Solaris", Year: 1972}, nil
}

func (f *fakeCatalog) ListCategories(context.Context, *models.User) ([]models.Category, error) {
	return []models.Category{{Name: "Movies", Slug: "movies"}}, nil
}

type fakeReviews struct {
	ReviewService
	created []string
}

func (f *fakeReviews) CreateReview(_ context.Context, actor *models.User, titleID int64, text string, score *int) (*models.Review, error) {
	if actor == nil {
		return nil, common.ErrUnauthenticated
	}
	if score == nil {
		return nil, common.NewValidationError("score", "this field is required")
	}
	if err := services.ValidateScore(*score); err != nil {
		return nil, err
	}
	f.created = append(f.created, fmt.Sprintf("%d:%s:%d", titleID, actor.Username, *score))
	return &models.Review{ID: 7, TitleID: titleID, AuthorID: actor.ID, AuthorUsername: actor.Username, Text: text, Score: *score,
		PubDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeReviews) DeleteReview(_ context.Context, actor *models.User, _, _ int64) error {
	switch {
	case actor == nil:
		return common.ErrUnauthenticated
	case actor.IsModerator() || actor.IsAdmin():
		return nil
	default:
		return common.ErrForbidden
	}
}

type fakeUsers struct{ UserService }

var (
	bob   = &models.User{ID: 2, Username: "bob", Email: "bob@example.com", Role: models.RoleUser, IsActive: true}
	mod   = &models.User{ID: 3, Username: "mod", Email: "mod@example.com", Role: models.RoleModerator, IsActive: true}
	admin = &models.User{ID: 1, Username: "root", Email: "root@example.com", Role: models.RoleAdmin, IsActive: true}
)

type fixture struct {
	h        http.Handler
	identity *fakeIdentity
	catalog  *fakeCatalog
	reviews  *fakeReviews
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		identity: &fakeIdentity{tokens: map[string]*models.User{"bob-token": bob, "mod-token": mod, "admin-token": admin}},
		catalog:  &fakeCatalog{},
		reviews:  &fakeReviews{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	f.h = NewAPI(f.identity, &fakeUsers{}, f.catalog, f.reviews, logger, opts).Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSignup(t *testing.T) {
	f := newFixture(t, Options{})

	t.Run("echoes identity", func(t *testing.T) {
		f.identity.signup = func(u, e string) (*services.SignupResult, error) {
			return &services.SignupResult{Username: u, Email: e}, nil
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", `{"username":"alice","email":"alice@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"username":"alice","email":"alice@example.com"}`, rec.Body.String())
	})

	t.Run("delivery warning", func(t *testing.T) {
		f.identity.signup = func(u, e string) (*services.SignupResult, error) {
			return &services.SignupResult{Username: u, Email: e, DeliveryErr: common.ErrDeliveryFailed}, nil
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", `{"username":"alice","email":"alice@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["warning"])
	})

	t.Run("validation", func(t *testing.T) {
		f.identity.signup = func(u, e string) (*services.SignupResult, error) {
			return nil, common.NewValidationError("username", `username "me" is reserved`)
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", `{"username":"me","email":"me@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"username":["username \"me\" is reserved"]}`, rec.Body.String())
	})

	t.Run("conflict is a bad request", func(t *testing.T) {
		f.identity.signup = func(u, e string) (*services.SignupResult, error) {
			return nil, common.NewConflictError("email", "taken")
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", `{"username":"x","email":"a@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec), "email")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup/", "", `{"username":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestToken(t *testing.T) {
	f := newFixture(t, Options{})
	f.identity.login = func(username, code string) (string, error) {
		switch {
		case username == "ghost":
			return "", common.ErrorNotFound
		case code != "GOODCODE":
			return "", common.ErrInvalidCredentials
		}
		return "jwt-for-" + username, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/token/", "", `{"username":"alice","confirmation_code":"GOODCODE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"jwt-for-alice"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/auth/token/", "", `{"username":"alice","confirmation_code":"BAD"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"confirmation_code":["Invalid token!"]}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/auth/token/", "", `{"username":"ghost","confirmation_code":"GOODCODE"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/api/v1/users/me/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me/", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me/", "expired", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is expired.", decodeBody(t, rec)["detail"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/", nil)
	req.Header.Set("Authorization", "Token bob-token")
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me/", "bob-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", decodeBody(t, rec)["username"])
}

func TestUpdateMe_PassesRoleToService(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPatch, "/api/v1/users/me/", "bob-token", `{"bio":"hi","role":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.identity.me.Role)
	assert.Equal(t, models.RoleAdmin, *f.identity.me.Role)
	assert.Equal(t, "hi", decodeBody(t, rec)["bio"])
}

func TestReviewEndpoints(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", "", `{"text":"x","score":5}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", "bob-token", `{"text":"x","score":11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "score")

	rec = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", "bob-token", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/titles/1/reviews/", "bob-token", `{"text":"great","score":9}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "bob", body["author"])
	assert.EqualValues(t, 9, body["score"])
	assert.Equal(t, []string{"1:bob:9"}, f.reviews.created)

	rec = f.do(t, http.MethodDelete, "/api/v1/titles/1/reviews/7/", "bob-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/titles/1/reviews/7/", "mod-token", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/titles/abc/reviews/7/", "mod-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnonymousUnsafe_RejectedBeforeBody(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/v1/titles/1/reviews/", `{"text":"x"}`},
		{http.MethodPost, "/api/v1/users/", `{"username":`},
		{http.MethodPatch, "/api/v1/titles/1/reviews/999/comments/5/", `{}`},
		{http.MethodDelete, "/api/v1/titles/abc/reviews/7/", ""},
	}
	for _, tt := range tests {
		rec := f.do(t, tt.method, tt.path, "", tt.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tt.method, tt.path)
	}
	assert.Empty(t, f.reviews.created)

	rec := f.do(t, http.MethodGet, "/api/v1/titles/1/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTitleEndpoints(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/api/v1/titles/1/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Solaris","year":1972,"rating":8,"description":"",
		"genre":[],"category":{"name":"Movies","slug":"movies"}}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/titles/2/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, rec.Body.String())

	rec = f.do(t, http.MethodPatch, "/api/v1/titles/1/", "bob-token", `{"year":1973}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/v1/titles/1/", "admin-token", `{"year":1973}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.catalog.lastInput.SetGenres)

	rec = f.do(t, http.MethodPatch, "/api/v1/titles/1/", "admin-token", `{"genre":["drama"],"category":"movies"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.catalog.lastInput.SetGenres)
	assert.Equal(t, []string{"drama"}, f.catalog.lastInput.GenreSlugs)
	require.NotNil(t, f.catalog.lastInput.CategorySlug)
	assert.Equal(t, "movies", *f.catalog.lastInput.CategorySlug)
}

func TestRequestIDAndMetrics(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/api/v1/categories/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yamdb_http_request_duration_seconds")
}

func TestAuthRateLimit(t *testing.T) {
	f := newFixture(t, Options{RateLimitAuth: 2, RateLimitWindow: time.Minute})
	f.identity.login = func(string, string) (string, error) { return "", common.ErrInvalidCredentials }

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/token/", "", `{"username":"a","confirmation_code":"b"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/auth/token/", "", `{"username":"a","confirmation_code":"b"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHTTPServer_StopsOnCancel(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
