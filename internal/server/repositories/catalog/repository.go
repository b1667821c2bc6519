// Package catalog persists categories, genres and titles.
package catalog

import (
	"context"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name, slug string) (*models.Category, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	DeleteCategory(ctx context.Context, slug string) error

	ListGenres(ctx context.Context) ([]models.Genre, error)
	CreateGenre(ctx context.Context, name, slug string) (*models.Genre, error)
	GetGenres(ctx context.Context, slugs []string) ([]models.Genre, error)
	DeleteGenre(ctx context.Context, slug string) error

	ListTitles(ctx context.Context) ([]models.Title, error)
	GetTitle(ctx context.Context, id int64) (*models.Title, error)
	TitleExists(ctx context.Context, id int64) (bool, error)
	CreateTitle(ctx context.Context, t *models.Title) (int64, error)
	UpdateTitle(ctx context.Context, t *models.Title) error
	SetTitleGenres(ctx context.Context, titleID int64, genreIDs []int64) error
	DeleteTitle(ctx context.Context, id int64) error
}
