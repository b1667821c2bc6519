// Package users persists user accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the user matching both username and email, creating
	// it when neither is taken. created reports whether a row was inserted.
	// A row matching only one of the two yields common.ErrConflict.
	GetOrCreate(ctx context.Context, username, email string) (user *models.User, created bool, err error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, search string) ([]models.User, error)
	Activate(ctx context.Context, from *models.User, at time.Time) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	SetElevation(ctx context.Context, username string, staff, superuser bool) (*models.User, error)
}
