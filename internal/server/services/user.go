// Package services contains server-side business logic. This file implements
// UserService, which handles login, registration and the user directory.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/dbx"
	"github.com/dmitrijs2005/vars/internal/logging"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/dmitrijs2005/vars/internal/server/avatar"
	"github.com/dmitrijs2005/vars/internal/server/models"
	"github.com/dmitrijs2005/vars/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vars/internal/server/throttle"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxOffset keeps (page-1)*pageSize inside a Postgres integer.
	maxOffset = math.MaxInt32
)

// decoyPassword is hashed once at construction.
const decoyPassword = "decoy-password-for-unknown-accounts"

// AccountFinder is the identity provider consulted at login: one lookup
// where the identifier may match either the name or the email column.
type AccountFinder interface {
	FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error)
}

// Hasher derives and checks stored password hashes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, stored string) (bool, error)
}

// TokenIssuer mints an access token for an identity snapshot.
type TokenIssuer interface {
	Issue(user auth.Identity) (string, error)
}

// UserPage is one page of the user directory.
type UserPage struct {
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Total    int64                `json:"total"`
	List     []*models.PublicUser `json:"list"`
}

// UserService provides account operations:
// - Login: verify credentials and mint an access token
// - Register / Update: write accounts with name and email uniqueness
// - Get / List: read the public projection
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	tokens      TokenIssuer
	limiter     throttle.Limiter
	log         logging.Logger

	// decoyHash is verified against when the identifier matches no account.
	decoyHash string
}

// NewUserService wires a UserService. A nil limiter disables login
// throttling. The decoy hash is derived here so an unusable hasher is
// reported at startup instead of on the first unknown login.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher Hasher,
	tokens TokenIssuer, limiter throttle.Limiter, log logging.Logger) (*UserService, error) {
	if limiter == nil {
		limiter = throttle.Disabled{}
	}

	decoy, err := hasher.Hash(decoyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		limiter:     limiter,
		log:         log,
		decoyHash:   decoy,
	}, nil
}

func (s *UserService) accounts() AccountFinder {
	return s.repomanager.Users(s.db)
}

// Login checks identifier (name or email) and password and returns a signed
// access token.
//
// Errors:
//   - auth.ErrMissingCredentials: empty identifier or password
//   - throttle.ErrTooManyAttempts: attempt budget spent, no lookup done
//   - auth.ErrWrongCredentials: unknown account or wrong password
//   - auth.ErrHashBackend: the stored hash could not be used
//   - auth.ErrTokenCreation: signing failed
//   - common.ErrorInternal: the account store failed
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", auth.ErrMissingCredentials
	}

	// the attempt is counted before any lookup or hashing
	if err := s.limiter.Reserve(ctx, identifier); err != nil {
		if errors.Is(err, throttle.ErrTooManyAttempts) {
			s.log.Warn(ctx, "login throttled", "identifier", identifier)
			return "", err
		}
		s.log.Error(ctx, "login throttle reserve failed", "error", err)
	}

	user, err := s.accounts().FindByNameOrEmail(ctx, identifier, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.decoyHash)
			s.loginFailed(ctx, identifier, "unknown account")
			return "", auth.ErrWrongCredentials
		}
		s.log.Error(ctx, "account lookup failed", "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		s.loginFailed(ctx, identifier, "hash backend")
		return "", err
	}
	if !ok {
		s.loginFailed(ctx, identifier, "wrong password")
		return "", auth.ErrWrongCredentials
	}

	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.log.Error(ctx, "login throttle reset failed", "error", err)
	}

	token, err := s.tokens.Issue(auth.Identity{ID: user.ID, Name: user.Name, Email: user.Email})
	if err != nil {
		s.log.Error(ctx, "token creation failed", "user_id", user.ID, "error", err)
		return "", err
	}

	s.log.Info(ctx, "login succeeded", "user_id", user.ID)
	return token, nil
}

func (s *UserService) loginFailed(ctx context.Context, identifier, reason string) {
	s.log.Warn(ctx, "login failed", "identifier", identifier, "reason", reason)
}

// Register creates an account. Plaintext is hashed before anything is
// stored. An empty avatarURL selects a generated one.
func (s *UserService) Register(ctx context.Context, name, email, password, avatarURL string) (*models.PublicUser, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, err
	}

	if avatarURL == "" {
		avatarURL = avatar.URL(email, avatar.DefaultSize)
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := ensureAvailable(ctx, repo, name, email, 0); err != nil {
			return err
		}

		u, err := repo.Create(ctx, &models.NewUser{Name: name, Email: email, PasswordHash: hash, Avatar: avatarURL})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, s.storeError(ctx, "register", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created.Public(), nil
}

// Get returns the public projection of one account.
func (s *UserService) Get(ctx context.Context, id int32) (*models.PublicUser, error) {
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get user", err)
	}
	return u.Public(), nil
}

// List returns one page of accounts ordered by id. page and pageSize below
// 1 fall back to 1 and DefaultPageSize; pageSize is capped at MaxPageSize.
func (s *UserService) List(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page-1 > maxOffset/pageSize {
		return nil, fmt.Errorf("%w: page is out of range", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "count users", err)
	}

	list, err := repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, s.storeError(ctx, "list users", err)
	}

	return &UserPage{Page: page, PageSize: pageSize, Total: total, List: list}, nil
}

// Update changes the profile of account id on behalf of actor. Only the
// account itself may do so.
func (s *UserService) Update(ctx context.Context, actor, id int32, name, email, avatarURL string) (*models.PublicUser, error) {
	if actor != id {
		return nil, common.ErrorForbidden
	}

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := ensureAvailable(ctx, repo, name, email, id); err != nil {
			return err
		}

		u, err := repo.Update(ctx, id, &models.UserUpdate{Name: name, Email: email, Avatar: avatarURL})
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, s.storeError(ctx, "update user", err)
	}

	return updated.Public(), nil
}

// ensureAvailable fails with common.ErrorConflict when name or email belongs
// to an account other than self.
func ensureAvailable(ctx context.Context, repo AccountFinder, name, email string, self int32) error {
	existing, err := repo.FindByNameOrEmail(ctx, name, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return common.ErrorConflict
	}
	return nil
}

func validateProfile(name, email string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	return nil
}

// storeError passes domain errors through and folds everything else into
// common.ErrorInternal.
func (s *UserService) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorValidation):
		return err
	}
	s.log.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
