// Package services contains server-side business logic: account lifecycle
// and password reset (AuthService), one-time codes (OTPManager), the points
// ledger (Ledger) and the paper catalog (Catalog).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/dmitrijs2005/paperhub/internal/server/auth"
	"github.com/dmitrijs2005/paperhub/internal/server/levels"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/notify"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
)

// TokenService mints and verifies session tokens.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Secret    string
}

// AuthService orchestrates signup, login, profile access and password reset.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	tokens      TokenService
	otp         *OTPManager
	notifier    notify.Notifier
	log         logging.Logger

	// dummyHash is compared against when the email is unknown so that both
	// login failure paths do the same work.
	dummyHash string
}

func NewAuthService(m repomanager.RepositoryManager, hasher auth.Hasher, tokens TokenService,
	otp *OTPManager, notifier notify.Notifier, log logging.Logger) (*AuthService, error) {

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		otp:         otp,
		notifier:    notifier,
		log:         log.With("module", "auth"),
		dummyHash:   dummy,
	}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorStorage, op, err)
}

// Signup creates a user with zero points at the lowest level and returns a
// session token. The pre-check only saves a hash computation; the unique
// index on email is what rejects concurrent duplicates.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (string, error) {
	email := common.NormalizeEmail(in.Email)
	if email == "" || in.Secret == "" || strings.TrimSpace(in.FirstName) == "" {
		return "", common.ErrorValidation
	}

	repo := s.repomanager.Users(s.repomanager.DB())

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return "", storageErr("lookup user", err)
	}

	hash, err := s.hasher.Hash(in.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: hash secret: %v", common.ErrorValidation, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:      email,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Phone:      strings.TrimSpace(in.Phone),
		SecretHash: hash,
		Points:     0,
		Level:      string(levels.Lowest),
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return "", common.ErrorConflict
		}
		return "", storageErr("create user", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Login returns a session token. Unknown email and wrong secret both yield
// common.ErrorInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, secret string) (string, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Compare(s.dummyHash, secret)
			return "", common.ErrorInvalidCredentials
		}
		return "", storageErr("lookup user", err)
	}

	if !s.hasher.Compare(user.SecretHash, secret) {
		return "", common.ErrorInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Authenticate resolves a session token to its user id. Any failure is
// reported as common.ErrorUnauthorized, wrapping the verifier's reason.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return userID, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageErr("get user", err)
	}
	return u, nil
}

// UpdateProfile changes display fields only. Points, level and secret are
// not reachable from here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, common.ErrorValidation
	}
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		return nil, common.ErrorValidation
	}

	u, err := s.repomanager.Users(s.repomanager.DB()).UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageErr("update profile", err)
	}
	return u, nil
}

// RequestPasswordReset always stores a fresh challenge so the response does
// not depend on whether the email is registered. The code is handed to the
// notifier only for registered emails; delivery failures are logged.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	if email == "" {
		return common.ErrorValidation
	}

	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return err
	}

	_, err = s.repomanager.Users(s.repomanager.DB()).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Debug(ctx, "password reset for unknown email")
			return nil
		}
		return storageErr("lookup user", err)
	}

	if err := s.notifier.PasswordReset(ctx, email, code); err != nil {
		s.log.Error(ctx, "password reset notification failed", "error", err)
	}
	return nil
}

// ResetPassword checks the code and replaces the secret hash. Claiming the
// code and updating the secret commit together; a code that loses the claim
// to a concurrent reset is rejected.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newSecret string) error {
	email = common.NormalizeEmail(email)
	if email == "" || code == "" || newSecret == "" {
		return common.ErrorValidation
	}

	// wrong codes are rejected before paying for bcrypt
	id, err := s.otp.Verify(ctx, s.repomanager.DB(), email, code)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return fmt.Errorf("%w: hash secret: %v", common.ErrorValidation, err)
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.otp.Redeem(ctx, tx, email, id); err != nil {
			return err
		}

		if err := s.repomanager.Users(tx).UpdateSecret(ctx, email, hash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return storageErr("update secret", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOtp) || errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorStorage) {
			return err
		}
		return storageErr("reset transaction", err)
	}

	s.log.Info(ctx, "password reset completed")
	return nil
}
