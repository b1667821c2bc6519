// Package reviews persists reviews, their comments, and computes title
// ratings from the stored scores.
package reviews

import (
	"context"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

type Repository interface {
	Exists(ctx context.Context, titleID, authorID int64) (bool, error)
	Create(ctx context.Context, r *models.Review) (*models.Review, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	List(ctx context.Context, titleID int64) ([]models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, reviewID int64) error
	Rating(ctx context.Context, titleID int64) (*float64, error)

	CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetComment(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	ListComments(ctx context.Context, reviewID int64) ([]models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, commentID int64) error
}
