package catalog

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

const MsgSlugTaken = "an object with this slug already exists"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --- categories and genres ---

func listSlugged[T any](ctx context.Context, db dbx.DBTX, table string) ([]T, error) {
	return dbx.Select[T](ctx, db, dbx.Psql.Select("id", "name", "slug").From(table).OrderBy("name"))
}

func createSlugged[T any](ctx context.Context, db dbx.DBTX, table, name, slug string) (*T, error) {
	v, err := dbx.Get[T](ctx, db,
		dbx.Psql.Insert(table).Columns("name", "slug").Values(name, slug).Suffix("RETURNING id, name, slug"))
	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, common.NewConflictError("slug", MsgSlugTaken)
		}
		return nil, err
	}
	return v, nil
}

func deleteSlugged(ctx context.Context, db dbx.DBTX, table, slug string) error {
	n, err := dbx.Exec(ctx, db, dbx.Psql.Delete(table).Where(sq.Eq{"slug": slug}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	return listSlugged[models.Category](ctx, r.db, "categories")
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	return createSlugged[models.Category](ctx, r.db, "categories", name, slug)
}

func (r *PostgresRepository) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	return dbx.Get[models.Category](ctx, r.db,
		dbx.Psql.Select("id", "name", "slug").From("categories").Where(sq.Eq{"slug": slug}))
}

// DeleteCategory removes the category; its titles keep existing without one.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, slug string) error {
	return deleteSlugged(ctx, r.db, "categories", slug)
}

func (r *PostgresRepository) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return listSlugged[models.Genre](ctx, r.db, "genres")
}

func (r *PostgresRepository) CreateGenre(ctx context.Context, name, slug string) (*models.Genre, error) {
	return createSlugged[models.Genre](ctx, r.db, "genres", name, slug)
}

// GetGenres returns the genres with the given slugs. Unknown slugs are
// simply absent from the result.
func (r *PostgresRepository) GetGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return []models.Genre{}, nil
	}
	return dbx.Select[models.Genre](ctx, r.db,
		dbx.Psql.Select("id", "name", "slug").From("genres").Where(sq.Eq{"slug": slugs}).OrderBy("name"))
}

// DeleteGenre removes the genre and detaches it from every title.
func (r *PostgresRepository) DeleteGenre(ctx context.Context, slug string) error {
	return deleteSlugged(ctx, r.db, "genres", slug)
}

// --- titles ---

func titleQuery() sq.SelectBuilder {
	return dbx.Psql.
		Select("t.id", "t.name", "t.year", "t.description", "t.category_id", "AVG(r.score)::float8 AS rating").
		From("titles t").
		LeftJoin("reviews r ON r.title_id = t.id").
		GroupBy("t.id")
}

func (r *PostgresRepository) ListTitles(ctx context.Context) ([]models.Title, error) {
	titles, err := dbx.Select[models.Title](ctx, r.db, titleQuery().OrderBy("t.id"))
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, titles); err != nil {
		return nil, err
	}
	return titles, nil
}

func (r *PostgresRepository) GetTitle(ctx context.Context, id int64) (*models.Title, error) {
	t, err := dbx.Get[models.Title](ctx, r.db, titleQuery().Where(sq.Eq{"t.id": id}))
	if err != nil {
		return nil, err
	}
	one := []models.Title{*t}
	if err := r.hydrate(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *PostgresRepository) TitleExists(ctx context.Context, id int64) (bool, error) {
	return dbx.Exists(ctx, r.db, dbx.Psql.Select("1").From("titles").Where(sq.Eq{"id": id}))
}

func (r *PostgresRepository) CreateTitle(ctx context.Context, t *models.Title) (int64, error) {
	var id int64
	err := dbx.Scalar(ctx, r.db,
		dbx.Psql.Insert("titles").
			Columns("name", "year", "description", "category_id").
			Values(t.Name, t.Year, t.Description, t.CategoryID).
			Suffix("RETURNING id"), &id)
	return id, err
}

func (r *PostgresRepository) UpdateTitle(ctx context.Context, t *models.Title) error {
	n, err := dbx.Exec(ctx, r.db,
		dbx.Psql.Update("titles").
			Set("name", t.Name).
			Set("year", t.Year).
			Set("description", t.Description).
			Set("category_id", t.CategoryID).
			Where(sq.Eq{"id": t.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// SetTitleGenres replaces the genre set of a title. Run it inside a
// transaction.
func (r *PostgresRepository) SetTitleGenres(ctx context.Context, titleID int64, genreIDs []int64) error {
	if _, err := dbx.Exec(ctx, r.db, dbx.Psql.Delete("genre_titles").Where(sq.Eq{"title_id": titleID})); err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}

	q := dbx.Psql.Insert("genre_titles").Columns("title_id", "genre_id")
	for _, g := range genreIDs {
		q = q.Values(titleID, g)
	}
	_, err := dbx.Exec(ctx, r.db, q)
	return err
}

// DeleteTitle removes the title with its reviews and their comments.
func (r *PostgresRepository) DeleteTitle(ctx context.Context, id int64) error {
	n, err := dbx.Exec(ctx, r.db, dbx.Psql.Delete("titles").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type titleGenre struct {
	TitleID int64  `db:"title_id"`
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Slug    string `db:"slug"`
}

// hydrate attaches categories and genres to titles.
func (r *PostgresRepository) hydrate(ctx context.Context, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}

	titleIDs := make([]int64, 0, len(titles))
	var categoryIDs []int64
	for _, t := range titles {
		titleIDs = append(titleIDs, t.ID)
		if t.CategoryID != nil {
			categoryIDs = append(categoryIDs, *t.CategoryID)
		}
	}

	categories := map[int64]models.Category{}
	if len(categoryIDs) > 0 {
		cs, err := dbx.Select[models.Category](ctx, r.db,
			dbx.Psql.Select("id", "name", "slug").From("categories").Where(sq.Eq{"id": categoryIDs}))
		if err != nil {
			return err
		}
		for _, c := range cs {
			categories[c.ID] = c
		}
	}

	links, err := dbx.Select[titleGenre](ctx, r.db,
		dbx.Psql.Select("gt.title_id", "g.id", "g.name", "g.slug").
			From("genre_titles gt").
			Join("genres g ON g.id = gt.genre_id").
			Where(sq.Eq{"gt.title_id": titleIDs}).
			OrderBy("g.name"))
	if err != nil {
		return err
	}
	genres := map[int64][]models.Genre{}
	for _, l := range links {
		genres[l.TitleID] = append(genres[l.TitleID], models.Genre{ID: l.ID, Name: l.Name, Slug: l.Slug})
	}

	for i := range titles {
		if titles[i].CategoryID != nil {
			if c, ok := categories[*titles[i].CategoryID]; ok {
				titles[i].Category = &c
			}
		}
		titles[i].Genres = genres[titles[i].ID]
		if titles[i].Genres == nil {
			titles[i].Genres = []models.Genre{}
		}
	}
	return nil
}
