package users

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

var userColumns = []string{
	"id", "username", "email", "first_name", "last_name", "bio", "role",
	"is_active", "is_staff", "is_superuser", "last_login", "date_joined",
}

const returningUser = "RETURNING id, username, email, first_name, last_name, bio, role, is_active, is_staff, is_superuser, last_login, date_joined"

// Messages reported on uniqueness violations.
const (
	MsgUsernameTaken = "a user with that username already exists"
	MsgEmailTaken    = "a user with that email already exists"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, username, email string) (*models.User, bool, error) {
	found, err := dbx.Select[models.User](ctx, r.db,
		dbx.Psql.Select(userColumns...).From("users").
			Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}))
	if err != nil {
		return nil, false, err
	}

	for i := range found {
		if found[i].Username == username && found[i].Email == email {
			return &found[i], false, nil
		}
	}
	if len(found) > 0 {
		if found[0].Username == username {
			return nil, false, common.NewConflictError("username", MsgUsernameTaken)
		}
		return nil, false, common.NewConflictError("email", MsgEmailTaken)
	}

	user, err := r.Create(ctx, &models.User{Username: username, Email: email, Role: models.RoleUser})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	q := dbx.Psql.Insert("users").
		Columns("username", "email", "first_name", "last_name", "bio", "role", "is_active", "is_staff", "is_superuser").
		Values(user.Username, user.Email, user.FirstName, user.LastName, user.Bio, string(role), user.IsActive, user.IsStaff, user.IsSuperuser).
		Suffix(returningUser)

	created, err := dbx.Get[models.User](ctx, r.db, q)
	if err != nil {
		return nil, mapUnique(err)
	}
	return created, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, username string) (*models.User, error) {
	return dbx.Get[models.User](ctx, r.db,
		dbx.Psql.Select(userColumns...).From("users").Where(sq.Eq{"username": username}))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return dbx.Get[models.User](ctx, r.db,
		dbx.Psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
}

// List returns users ordered by username. A non-empty search filters by
// username substring.
func (r *PostgresRepository) List(ctx context.Context, search string) ([]models.User, error) {
	q := dbx.Psql.Select(userColumns...).From("users").OrderBy("username")
	if search != "" {
		q = q.Where(sq.ILike{"username": "%" + search + "%"})
	}
	return dbx.Select[models.User](ctx, r.db, q)
}

// Activate marks the user active and records the login time, but only while
// the row still matches the state seen in from. A concurrent login that got
// there first leaves nothing to update and yields common.ErrorNotFound.
func (r *PostgresRepository) Activate(ctx context.Context, from *models.User, at time.Time) (*models.User, error) {
	var lastLogin any
	if from.LastLogin != nil {
		lastLogin = *from.LastLogin
	}
	return dbx.Get[models.User](ctx, r.db,
		dbx.Psql.Update("users").
			Set("is_active", true).
			Set("last_login", at).
			Where(sq.Eq{"id": from.ID}).
			Where(sq.Eq{"is_active": from.IsActive}).
			Where(sq.Eq{"last_login": lastLogin}).
			Suffix(returningUser))
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	q := dbx.Psql.Update("users").Where(sq.Eq{"id": id}).Suffix(returningUser)

	changed := false
	set := func(col string, v any) {
		q = q.Set(col, v)
		changed = true
	}
	if patch.Username != nil {
		set("username", *patch.Username)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Bio != nil {
		set("bio", *patch.Bio)
	}
	if patch.Role != nil {
		set("role", string(*patch.Role))
	}
	if !changed {
		return r.GetByID(ctx, id)
	}

	user, err := dbx.Get[models.User](ctx, r.db, q)
	if err != nil {
		return nil, mapUnique(err)
	}
	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	n, err := dbx.Exec(ctx, r.db, dbx.Psql.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetElevation(ctx context.Context, username string, staff, superuser bool) (*models.User, error) {
	return dbx.Get[models.User](ctx, r.db,
		dbx.Psql.Update("users").
			Set("is_staff", staff).
			Set("is_superuser", superuser).
			Where(sq.Eq{"username": username}).
			Suffix(returningUser))
}

func mapUnique(err error) error {
	constraint, ok := dbx.IsUniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "users_email_key":
		return common.NewConflictError("email", MsgEmailTaken)
	default:
		return common.NewConflictError("username", MsgUsernameTaken)
	}
}
