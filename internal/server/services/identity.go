// Package services contains server-side business logic. Services own
// transactions, run authorization before any mutation and translate
// repository results into the error taxonomy in package common.
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
	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/auth"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/dmitrijs2005/yamdb/internal/server/mail"
	"github.com/dmitrijs2005/yamdb/internal/server/metrics"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yamdb/internal/validation"
)

const signupSubject = "Signup confirmation"

// SignupResult echoes the identity back. DeliveryErr is set when the user
// row is in place but the code could not be sent.
type SignupResult struct {
	Username    string
	Email       string
	DeliveryErr error
}

// IdentityService implements passwordless signup, code-for-token exchange,
// token authentication and the self-service profile.
type IdentityService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	codes             *auth.CodeEngine
	tokens            *auth.TokenIssuer
	mailer            mail.Sender
	authz             *authz.Engine
	logger            logging.Logger
	mailFrom          string
	usernameMaxLength int
	emailMaxLength    int
	now               func() time.Time
}

// NewIdentityService wires the service from server config. now is the clock
// shared with the code engine and token issuer; nil means time.Now.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, engine *authz.Engine, mailer mail.Sender,
	cfg *config.Config, logger logging.Logger, now func() time.Time) *IdentityService {
	if now == nil {
		now = time.Now
	}
	secret := []byte(cfg.SecretKey)
	return &IdentityService{
		db:                db,
		repomanager:       m,
		codes:             auth.NewCodeEngine(secret, cfg.ConfirmationCodeValidityDuration, cfg.ConfirmationCodeStep, now),
		tokens:            auth.NewTokenIssuer(secret, cfg.AccessTokenValidityDuration, now),
		mailer:            mailer,
		authz:             engine,
		logger:            logger.With("module", "identity"),
		mailFrom:          cfg.MailFrom,
		usernameMaxLength: cfg.UsernameMaxLength,
		emailMaxLength:    cfg.EmailMaxLength,
		now:               now,
	}
}

// Signup creates a pending user or reuses the one already bound to exactly
// this (username, email) pair, then mails a confirmation code. The code is
// never returned.
func (s *IdentityService) Signup(ctx context.Context, username, email string) (*SignupResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := s.validateIdentity(username, email); err != nil {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var (
		user    *models.User
		created bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, created, err = s.repomanager.Users(tx).GetOrCreate(ctx, username, email)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			metrics.Signups.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if created {
		metrics.Signups.WithLabelValues("created").Inc()
	} else {
		metrics.Signups.WithLabelValues("reused").Inc()
	}

	res := &SignupResult{Username: user.Username, Email: user.Email}

	code := s.codes.Issue(user)
	msg := mail.Message{
		From:    s.mailFrom,
		To:      user.Email,
		Subject: signupSubject,
		Body:    fmt.Sprintf("Your confirmation code: %q.", code),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn(ctx, "confirmation code delivery failed", "username", user.Username, "backend", s.mailer.Name(), "error", err)
		res.DeliveryErr = fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	return res, nil
}

// Login exchanges a confirmation code for an access token. A valid code
// activates the user and moves last_login, which invalidates the code.
func (s *IdentityService) Login(ctx context.Context, username, code string) (string, error) {
	fe := &common.FieldErrors{}
	if strings.TrimSpace(username) == "" {
		fe.Add("username", validation.MsgRequired)
	}
	if strings.TrimSpace(code) == "" {
		fe.Add("confirmation_code", validation.MsgRequired)
	}
	if !fe.Empty() {
		return "", fe
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.TokenExchanges.WithLabelValues("not_found").Inc()
			return "", err
		}
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if !s.codes.Verify(user, code) {
		metrics.TokenExchanges.WithLabelValues("invalid_code").Inc()
		return "", common.ErrInvalidCredentials
	}

	user, err = s.repomanager.Users(s.db).Activate(ctx, user, loginTime(user, s.now()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// another login consumed the code first
			metrics.TokenExchanges.WithLabelValues("invalid_code").Inc()
			return "", common.ErrInvalidCredentials
		}
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("error activating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return "", common.ErrorInternal
	}

	metrics.TokenExchanges.WithLabelValues("issued").Inc()
	s.logger.Info(ctx, "access token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a bearer token to its user. Tokens of deleted or
// inactive users are rejected as invalid.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.UserID(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown user", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", common.ErrInvalidToken)
	}
	return user, nil
}

// Me returns the caller's own profile.
func (s *IdentityService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	if err := s.authz.Check(actor, authz.ActionRead, authz.KindProfile, nil); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).GetByID(ctx, actor.ID)
}

// UpdateMe applies a self-service profile edit. A role change is dropped
// silently unless the caller is an admin.
func (s *IdentityService) UpdateMe(ctx context.Context, actor *models.User, patch models.UserPatch) (*models.User, error) {
	if err := s.authz.Check(actor, authz.ActionUpdate, authz.KindProfile, nil); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		patch.Role = nil
	}
	if err := validatePatch(patch, s.usernameMaxLength, s.emailMaxLength); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).Update(ctx, actor.ID, patch)
}

func (s *IdentityService) validateIdentity(username, email string) error {
	fe := &common.FieldErrors{}
	if err := validation.Username(username, s.usernameMaxLength); err != nil {
		mergeFieldErrors(fe, err)
	}
	if err := validation.Email(email, s.emailMaxLength); err != nil {
		mergeFieldErrors(fe, err)
	}
	if fe.Empty() {
		return nil
	}
	return fe
}

// validatePatch checks the fields a patch sets.
func validatePatch(p models.UserPatch, usernameMax, emailMax int) error {
	fe := &common.FieldErrors{}
	if p.Username != nil {
		mergeFieldErrors(fe, validation.Username(*p.Username, usernameMax))
	}
	if p.Email != nil {
		mergeFieldErrors(fe, validation.Email(*p.Email, emailMax))
	}
	if p.Role != nil && !p.Role.Valid() {
		fe.Add("role", fmt.Sprintf("%q is not a valid choice", *p.Role))
	}
	for field, v := range map[string]*string{"first_name": p.FirstName, "last_name": p.LastName} {
		if v != nil && len([]rune(*v)) > 150 {
			fe.Add(field, "ensure this field has no more than 150 characters")
		}
	}
	if fe.Empty() {
		return nil
	}
	return fe
}

func mergeFieldErrors(dst *common.FieldErrors, err error) {
	if err == nil {
		return
	}
	var fe *common.FieldErrors
	if !errors.As(err, &fe) {
		dst.Add("non_field_errors", err.Error())
		return
	}
	for field, msgs := range fe.Fields {
		for _, m := range msgs {
			dst.Add(field, m)
		}
	}
}

// loginTime is the new last_login at the storage precision. It always moves
// past the previous value so every login changes the code snapshot.
func loginTime(u *models.User, now time.Time) time.Time {
	at := now.UTC().Truncate(time.Microsecond)
	if u.LastLogin != nil && !at.After(*u.LastLogin) {
		at = u.LastLogin.UTC().Add(time.Microsecond)
	}
	return at
}
