package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
)

// UserService is the admin-only user management surface.
type UserService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	authz             *authz.Engine
	usernameMaxLength int
	emailMaxLength    int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, engine *authz.Engine, cfg *config.Config) *UserService {
	return &UserService{
		db:                db,
		repomanager:       m,
		authz:             engine,
		usernameMaxLength: cfg.UsernameMaxLength,
		emailMaxLength:    cfg.EmailMaxLength,
	}
}

func (s *UserService) List(ctx context.Context, actor *models.User, search string) ([]models.User, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindUser, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).List(ctx, search)
}

// Create adds an account directly. Created accounts are still inactive
// until their owner exchanges a confirmation code.
func (s *UserService) Create(ctx context.Context, actor *models.User, u *models.User) (*models.User, error) {
	if err := s.authz.Check(actor, authz.ActionCreate, authz.KindUser, nil); err != nil {
		return nil, err
	}

	if u.Role == "" {
		u.Role = models.RoleUser
	}
	patch := models.UserPatch{
		Username:  &u.Username,
		Email:     &u.Email,
		FirstName: &u.FirstName,
		LastName:  &u.LastName,
		Role:      &u.Role,
	}
	if err := validatePatch(patch, s.usernameMaxLength, s.emailMaxLength); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UserService) Get(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindUser, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
}

func (s *UserService) Update(ctx context.Context, actor *models.User, username string, patch models.UserPatch) (*models.User, error) {
	if err := s.authz.Check(actor, authz.ActionUpdate, authz.KindUser, nil); err != nil {
		return nil, err
	}
	if err := validatePatch(patch, s.usernameMaxLength, s.emailMaxLength); err != nil {
		return nil, err
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		target, err := repo.GetUserByLogin(ctx, username)
		if err != nil {
			return err
		}
		updated, err = repo.Update(ctx, target.ID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor *models.User, username string) error {
	if err := s.authz.Check(actor, authz.ActionDelete, authz.KindUser, nil); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		target, err := repo.GetUserByLogin(ctx, username)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, target.ID)
	})
}

// Elevate sets the staff and superuser flags. It is an operator action
// used by the admin CLI and bypasses request authorization.
func (s *UserService) Elevate(ctx context.Context, username string, staff, superuser bool) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).SetElevation(ctx, username, staff, superuser)
	if err != nil {
		return nil, fmt.Errorf("error elevating %s: %w", username, err)
	}
	return u, nil
}
