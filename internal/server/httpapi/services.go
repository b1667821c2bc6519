package httpapi

import (
	"context"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/services"
)

// The handlers depend on these views of the services.

type IdentityService interface {
	Signup(ctx context.Context, username, email string) (*services.SignupResult, error)
	Login(ctx context.Context, username, code string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Me(ctx context.Context, actor *models.User) (*models.User, error)
	UpdateMe(ctx context.Context, actor *models.User, patch models.UserPatch) (*models.User, error)
}

type UserService interface {
	List(ctx context.Context, actor *models.User, search string) ([]models.User, error)
	Create(ctx context.Context, actor *models.User, u *models.User) (*models.User, error)
	Get(ctx context.Context, actor *models.User, username string) (*models.User, error)
	Update(ctx context.Context, actor *models.User, username string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, username string) error
}

type CatalogService interface {
	ListCategories(ctx context.Context, actor *models.User) ([]models.Category, error)
	CreateCategory(ctx context.Context, actor *models.User, name, slug string) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor *models.User, slug string) error
	ListGenres(ctx context.Context, actor *models.User) ([]models.Genre, error)
	CreateGenre(ctx context.Context, actor *models.User, name, slug string) (*models.Genre, error)
	DeleteGenre(ctx context.Context, actor *models.User, slug string) error
	ListTitles(ctx context.Context, actor *models.User) ([]models.Title, error)
	GetTitle(ctx context.Context, actor *models.User, id int64) (*models.Title, error)
	CreateTitle(ctx context.Context, actor *models.User, in models.TitleInput) (*models.Title, error)
	UpdateTitle(ctx context.Context, actor *models.User, id int64, in models.TitleInput) (*models.Title, error)
	DeleteTitle(ctx context.Context, actor *models.User, id int64) error
}

type ReviewService interface {
	ListReviews(ctx context.Context, actor *models.User, titleID int64) ([]models.Review, error)
	GetReview(ctx context.Context, actor *models.User, titleID, reviewID int64) (*models.Review, error)
	CreateReview(ctx context.Context, actor *models.User, titleID int64, text string, score *int) (*models.Review, error)
	UpdateReview(ctx context.Context, actor *models.User, titleID, reviewID int64, text *string, score *int) (*models.Review, error)
	DeleteReview(ctx context.Context, actor *models.User, titleID, reviewID int64) error
	ListComments(ctx context.Context, actor *models.User, titleID, reviewID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) (*models.Comment, error)
	CreateComment(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error
}

var (
	_ IdentityService = (*services.IdentityService)(nil)
	_ UserService     = (*services.UserService)(nil)
	_ CatalogService  = (*services.CatalogService)(nil)
	_ ReviewService   = (*services.ReviewService)(nil)
)
