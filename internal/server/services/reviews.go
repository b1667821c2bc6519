package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/reviews"
	"github.com/dmitrijs2005/yamdb/internal/validation"
)

// Score bounds, inclusive.
const (
	MinScore = 1
	MaxScore = 10

	commentMaxLength = 300
)

// ReviewService manages reviews and their comments, nested under titles.
// A review or comment addressed through the wrong parent is not found.
type ReviewService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       *authz.Engine
}

func NewReviewService(db *sql.DB, m repomanager.RepositoryManager, engine *authz.Engine) *ReviewService {
	return &ReviewService{db: db, repomanager: m, authz: engine}
}

// ValidateScore accepts scores in [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return common.NewValidationError("score", fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore))
	}
	return nil
}

func (s *ReviewService) ListReviews(ctx context.Context, actor *models.User, titleID int64) ([]models.Review, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindReview, nil); err != nil {
		return nil, err
	}
	if err := s.titleExists(ctx, s.db, titleID); err != nil {
		return nil, err
	}
	return s.repomanager.Reviews(s.db).List(ctx, titleID)
}

func (s *ReviewService) GetReview(ctx context.Context, actor *models.User, titleID, reviewID int64) (*models.Review, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindReview, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Reviews(s.db).Get(ctx, titleID, reviewID)
}

// CreateReview adds the actor's review of a title. A second review of the
// same title by the same author is a conflict, whether caught by the
// pre-check or by the unique index when two requests race.
func (s *ReviewService) CreateReview(ctx context.Context, actor *models.User, titleID int64, text string, score *int) (*models.Review, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindReview, nil); err != nil {
		return nil, err
	}

	fe := &common.FieldErrors{}
	if strings.TrimSpace(text) == "" {
		fe.Add("text", validation.MsgRequired)
	}
	if score == nil {
		fe.Add("score", validation.MsgRequired)
	} else {
		mergeFieldErrors(fe, ValidateScore(*score))
	}
	if !fe.Empty() {
		return nil, fe
	}

	var created *models.Review
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.titleExists(ctx, tx, titleID); err != nil {
			return err
		}

		repo := s.repomanager.Reviews(tx)
		exists, err := repo.Exists(ctx, titleID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return common.NewConflictError("non_field_errors", reviews.MsgAlreadyReviewed)
		}

		created, err = repo.Create(ctx, &models.Review{
			TitleID:        titleID,
			AuthorID:       actor.ID,
			AuthorUsername: actor.Username,
			Text:           text,
			Score:          *score,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateReview lets the author, a moderator or an admin change text and
// score. Nil fields are kept.
func (s *ReviewService) UpdateReview(ctx context.Context, actor *models.User, titleID, reviewID int64, text *string, score *int) (*models.Review, error) {
	if err := s.authz.Authenticated(actor, authz.ActionUpdate); err != nil {
		return nil, err
	}

	repo := s.repomanager.Reviews(s.db)

	review, err := repo.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(actor, authz.ActionUpdate, authz.KindReview, review); err != nil {
		return nil, err
	}

	fe := &common.FieldErrors{}
	if text != nil {
		if strings.TrimSpace(*text) == "" {
			fe.Add("text", validation.MsgRequired)
		}
		review.Text = *text
	}
	if score != nil {
		mergeFieldErrors(fe, ValidateScore(*score))
		review.Score = *score
	}
	if !fe.Empty() {
		return nil, fe
	}

	if err := repo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	if err := s.authz.Authenticated(actor, authz.ActionDelete); err != nil {
		return err
	}

	repo := s.repomanager.Reviews(s.db)

	review, err := repo.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindReview, review); err != nil {
		return err
	}
	return repo.Delete(ctx, review.ID)
}

// Rating is the mean score of the title's reviews, nil without reviews.
// It is computed on every call.
func (s *ReviewService) Rating(ctx context.Context, titleID int64) (*float64, error) {
	if err := s.titleExists(ctx, s.db, titleID); err != nil {
		return nil, err
	}
	return s.repomanager.Reviews(s.db).Rating(ctx, titleID)
}

func (s *ReviewService) ListComments(ctx context.Context, actor *models.User, titleID, reviewID int64) ([]models.Comment, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindComment, nil); err != nil {
		return nil, err
	}
	repo := s.repomanager.Reviews(s.db)
	if _, err := repo.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return repo.ListComments(ctx, reviewID)
}

func (s *ReviewService) GetComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindComment, nil); err != nil {
		return nil, err
	}
	return s.comment(ctx, titleID, reviewID, commentID)
}

func (s *ReviewService) CreateComment(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*models.Comment, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindComment, nil); err != nil {
		return nil, err
	}
	if err := validateCommentText(text); err != nil {
		return nil, err
	}

	repo := s.repomanager.Reviews(s.db)
	if _, err := repo.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return repo.CreateComment(ctx, &models.Comment{
		ReviewID:       reviewID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Text:           text,
	})
}

func (s *ReviewService) UpdateComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, text string) (*models.Comment, error) {
	if err := s.authz.Authenticated(actor, authz.ActionUpdate); err != nil {
		return nil, err
	}

	c, err := s.comment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(actor, authz.ActionUpdate, authz.KindComment, c); err != nil {
		return nil, err
	}
	if err := validateCommentText(text); err != nil {
		return nil, err
	}

	c.Text = text
	if err := s.repomanager.Reviews(s.db).UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error {
	if err := s.authz.Authenticated(actor, authz.ActionDelete); err != nil {
		return err
	}

	c, err := s.comment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindComment, c); err != nil {
		return err
	}
	return s.repomanager.Reviews(s.db).DeleteComment(ctx, c.ID)
}

func (s *ReviewService) comment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	repo := s.repomanager.Reviews(s.db)
	if _, err := repo.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return repo.GetComment(ctx, reviewID, commentID)
}

func (s *ReviewService) titleExists(ctx context.Context, db dbx.DBTX, titleID int64) error {
	ok, err := s.repomanager.Catalog(db).TitleExists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func validateCommentText(text string) error {
	switch {
	case strings.TrimSpace(text) == "":
		return common.NewValidationError("text", validation.MsgRequired)
	case len([]rune(text)) > commentMaxLength:
		return common.NewValidationError("text", fmt.Sprintf("ensure this field has no more than %d characters", commentMaxLength))
	}
	return nil
}
