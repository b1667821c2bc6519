package reviews

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

const MsgAlreadyReviewed = "you have already reviewed this title"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func reviewQuery() sq.SelectBuilder {
	return dbx.Psql.
		Select("r.id", "r.title_id", "r.author_id", "u.username AS author_username", "r.text", "r.score", "r.pub_date").
		From("reviews r").
		Join("users u ON u.id = r.author_id")
}

func commentQuery() sq.SelectBuilder {
	return dbx.Psql.
		Select("c.id", "c.review_id", "c.author_id", "u.username AS author_username", "c.text", "c.pub_date").
		From("comments c").
		Join("users u ON u.id = c.author_id")
}

func (r *PostgresRepository) Exists(ctx context.Context, titleID, authorID int64) (bool, error) {
	return dbx.Exists(ctx, r.db,
		dbx.Psql.Select("1").From("reviews").Where(sq.Eq{"title_id": titleID, "author_id": authorID}))
}

// Create inserts the review. The (title, author) unique index turns a lost
// race into common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	created, err := dbx.Get[models.Review](ctx, r.db,
		dbx.Psql.Insert("reviews").
			Columns("title_id", "author_id", "text", "score").
			Values(review.TitleID, review.AuthorID, review.Text, review.Score).
			Suffix("RETURNING id, title_id, author_id, text, score, pub_date"))
	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, common.NewConflictError("non_field_errors", MsgAlreadyReviewed)
		}
		return nil, err
	}
	created.AuthorUsername = review.AuthorUsername
	return created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	return dbx.Get[models.Review](ctx, r.db,
		reviewQuery().Where(sq.Eq{"r.id": reviewID, "r.title_id": titleID}))
}

func (r *PostgresRepository) List(ctx context.Context, titleID int64) ([]models.Review, error) {
	return dbx.Select[models.Review](ctx, r.db,
		reviewQuery().Where(sq.Eq{"r.title_id": titleID}).OrderBy("r.pub_date DESC", "r.id DESC"))
}

func (r *PostgresRepository) Update(ctx context.Context, review *models.Review) error {
	n, err := dbx.Exec(ctx, r.db,
		dbx.Psql.Update("reviews").
			Set("text", review.Text).
			Set("score", review.Score).
			Where(sq.Eq{"id": review.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the review with its comments.
func (r *PostgresRepository) Delete(ctx context.Context, reviewID int64) error {
	n, err := dbx.Exec(ctx, r.db, dbx.Psql.Delete("reviews").Where(sq.Eq{"id": reviewID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Rating returns the mean score of the title's reviews, or nil when it has
// none.
func (r *PostgresRepository) Rating(ctx context.Context, titleID int64) (*float64, error) {
	var avg sql.NullFloat64
	err := dbx.Scalar(ctx, r.db,
		dbx.Psql.Select("AVG(score)::float8").From("reviews").Where(sq.Eq{"title_id": titleID}), &avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *PostgresRepository) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	created, err := dbx.Get[models.Comment](ctx, r.db,
		dbx.Psql.Insert("comments").
			Columns("review_id", "author_id", "text").
			Values(c.ReviewID, c.AuthorID, c.Text).
			Suffix("RETURNING id, review_id, author_id, text, pub_date"))
	if err != nil {
		return nil, err
	}
	created.AuthorUsername = c.AuthorUsername
	return created, nil
}

func (r *PostgresRepository) GetComment(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	return dbx.Get[models.Comment](ctx, r.db,
		commentQuery().Where(sq.Eq{"c.id": commentID, "c.review_id": reviewID}))
}

func (r *PostgresRepository) ListComments(ctx context.Context, reviewID int64) ([]models.Comment, error) {
	return dbx.Select[models.Comment](ctx, r.db,
		commentQuery().Where(sq.Eq{"c.review_id": reviewID}).OrderBy("c.pub_date DESC", "c.id DESC"))
}

func (r *PostgresRepository) UpdateComment(ctx context.Context, c *models.Comment) error {
	n, err := dbx.Exec(ctx, r.db,
		dbx.Psql.Update("comments").Set("text", c.Text).Where(sq.Eq{"id": c.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteComment(ctx context.Context, commentID int64) error {
	n, err := dbx.Exec(ctx, r.db, dbx.Psql.Delete("comments").Where(sq.Eq{"id": commentID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
