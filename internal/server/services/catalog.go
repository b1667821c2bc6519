package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yamdb/internal/validation"
)

// MinTitleYear is the earliest accepted release year.
const MinTitleYear = 868

type sluggedInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// CatalogService manages categories, genres and titles. Reads are public,
// writes need the admin level.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       *authz.Engine
	now         func() time.Time
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, engine *authz.Engine, now func() time.Time) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{db: db, repomanager: m, authz: engine, now: now}
}

func (s *CatalogService) ListCategories(ctx context.Context, actor *models.User) ([]models.Category, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindCategory, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *models.User, name, slug string) (*models.Category, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindCategory, nil); err != nil {
		return nil, err
	}
	if err := validation.Struct(sluggedInput{Name: name, Slug: slug}); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).CreateCategory(ctx, name, slug)
}

// DeleteCategory removes a category. Its titles stay, uncategorized.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *models.User, slug string) error {
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindCategory, nil); err != nil {
		return err
	}
	return s.repomanager.Catalog(s.db).DeleteCategory(ctx, slug)
}

func (s *CatalogService) ListGenres(ctx context.Context, actor *models.User) ([]models.Genre, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindGenre, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).ListGenres(ctx)
}

func (s *CatalogService) CreateGenre(ctx context.Context, actor *models.User, name, slug string) (*models.Genre, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindGenre, nil); err != nil {
		return nil, err
	}
	if err := validation.Struct(sluggedInput{Name: name, Slug: slug}); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).CreateGenre(ctx, name, slug)
}

// DeleteGenre removes a genre and detaches it from its titles.
func (s *CatalogService) DeleteGenre(ctx context.Context, actor *models.User, slug string) error {
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindGenre, nil); err != nil {
		return err
	}
	return s.repomanager.Catalog(s.db).DeleteGenre(ctx, slug)
}

func (s *CatalogService) ListTitles(ctx context.Context, actor *models.User) ([]models.Title, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindTitle, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).ListTitles(ctx)
}

func (s *CatalogService) GetTitle(ctx context.Context, actor *models.User, id int64) (*models.Title, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindTitle, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Catalog(s.db).GetTitle(ctx, id)
}

// CreateTitle stores a title and attaches its category and genres in one
// transaction. Name and year are required.
func (s *CatalogService) CreateTitle(ctx context.Context, actor *models.User, in models.TitleInput) (*models.Title, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindTitle, nil); err != nil {
		return nil, err
	}

	fe := &common.FieldErrors{}
	if in.Name == nil {
		fe.Add("name", validation.MsgRequired)
	}
	if in.Year == nil {
		fe.Add("year", validation.MsgRequired)
	}
	s.validateTitle(fe, in)
	if !fe.Empty() {
		return nil, fe
	}

	t := &models.Title{Name: strings.TrimSpace(*in.Name), Year: *in.Year}
	if in.Description != nil {
		t.Description = *in.Description
	}

	var id int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Catalog(tx)
		genreIDs, err := s.resolveRefs(ctx, tx, t, in)
		if err != nil {
			return err
		}
		if id, err = repo.CreateTitle(ctx, t); err != nil {
			return err
		}
		return repo.SetTitleGenres(ctx, id, genreIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.repomanager.Catalog(s.db).GetTitle(ctx, id)
}

// UpdateTitle applies the fields set in in. Genres are replaced only when
// in.SetGenres is true.
func (s *CatalogService) UpdateTitle(ctx context.Context, actor *models.User, id int64, in models.TitleInput) (*models.Title, error) {
	if err := s.authz.Check(actor, authz.ActionUpdate, authz.KindTitle, nil); err != nil {
		return nil, err
	}

	fe := &common.FieldErrors{}
	s.validateTitle(fe, in)
	if !fe.Empty() {
		return nil, fe
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Catalog(tx)
		t, err := repo.GetTitle(ctx, id)
		if err != nil {
			return err
		}

		if in.Name != nil {
			t.Name = strings.TrimSpace(*in.Name)
		}
		if in.Year != nil {
			t.Year = *in.Year
		}
		if in.Description != nil {
			t.Description = *in.Description
		}

		genreIDs, err := s.resolveRefs(ctx, tx, t, in)
		if err != nil {
			return err
		}
		if err := repo.UpdateTitle(ctx, t); err != nil {
			return err
		}
		if in.SetGenres {
			return repo.SetTitleGenres(ctx, id, genreIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repomanager.Catalog(s.db).GetTitle(ctx, id)
}

// DeleteTitle removes the title with its reviews and their comments.
func (s *CatalogService) DeleteTitle(ctx context.Context, actor *models.User, id int64) error {
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindTitle, nil); err != nil {
		return err
	}
	return s.repomanager.Catalog(s.db).DeleteTitle(ctx, id)
}

func (s *CatalogService) validateTitle(fe *common.FieldErrors, in models.TitleInput) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			fe.Add("name", validation.MsgRequired)
		case len([]rune(name)) > 256:
			fe.Add("name", "ensure this field has no more than 256 characters")
		}
	}
	if in.Year != nil {
		if err := ValidateYear(*in.Year, s.now()); err != nil {
			mergeFieldErrors(fe, err)
		}
	}
}

// ValidateYear accepts years from MinTitleYear up to the current year of
// now.
func ValidateYear(year int, now time.Time) error {
	if year < MinTitleYear {
		return common.NewValidationError("year", fmt.Sprintf("ensure this value is greater than or equal to %d", MinTitleYear))
	}
	if current := now.Year(); year > current {
		return common.NewValidationError("year", fmt.Sprintf("year cannot be later than %d", current))
	}
	return nil
}

// resolveRefs sets t.CategoryID from in.CategorySlug and returns the ids of
// in.GenreSlugs. Unknown slugs are validation errors.
func (s *CatalogService) resolveRefs(ctx context.Context, tx dbx.DBTX, t *models.Title, in models.TitleInput) ([]int64, error) {
	repo := s.repomanager.Catalog(tx)

	if in.CategorySlug != nil {
		if *in.CategorySlug == "" {
			t.CategoryID = nil
		} else {
			c, err := repo.GetCategory(ctx, *in.CategorySlug)
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.NewValidationError("category", fmt.Sprintf("category %q does not exist", *in.CategorySlug))
			}
			if err != nil {
				return nil, err
			}
			t.CategoryID = &c.ID
		}
	}

	if !in.SetGenres && len(in.GenreSlugs) == 0 {
		return nil, nil
	}

	genres, err := repo.GetGenres(ctx, in.GenreSlugs)
	if err != nil {
		return nil, err
	}
	known := make(map[string]int64, len(genres))
	for _, g := range genres {
		known[g.Slug] = g.ID
	}

	ids := make([]int64, 0, len(in.GenreSlugs))
	seen := make(map[int64]bool, len(in.GenreSlugs))
	fe := &common.FieldErrors{}
	for _, slug := range in.GenreSlugs {
		id, ok := known[slug]
		if !ok {
			fe.Add("genre", fmt.Sprintf("genre %q does not exist", slug))
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if !fe.Empty() {
		return nil, fe
	}
	return ids, nil
}
