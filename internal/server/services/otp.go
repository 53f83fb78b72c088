package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
)

// OTPManager issues and checks single-use numeric reset codes.
//
// Only the newest unconsumed challenge of an email inside the validity window
// verifies; issuing a code supersedes the earlier ones. Redeem claims the
// verified challenge atomically, so a code authorizes at most one reset.
type OTPManager struct {
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	now         func() time.Time
	generate    func() (string, error)
}

func NewOTPManager(m repomanager.RepositoryManager, validity time.Duration) *OTPManager {
	return &OTPManager{
		repomanager: m,
		validity:    validity,
		now:         time.Now,
		generate:    func() (string, error) { return common.MakeRandDigits(common.OTPDigits) },
	}
}

// Issue persists a fresh challenge for email and returns its code.
func (o *OTPManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := o.generate()
	if err != nil {
		return "", fmt.Errorf("%w: generate code: %v", common.ErrorInternal, err)
	}

	_, err = o.repomanager.Challenges(o.repomanager.DB()).Create(ctx, &models.Challenge{
		Email:     email,
		Code:      code,
		CreatedAt: o.now(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: store challenge: %v", common.ErrorStorage, err)
	}
	return code, nil
}

// Verify checks code against the newest live challenge issued for email and
// returns that challenge's id. A mismatch, a superseded or expired code, or no
// challenge at all yields common.ErrInvalidOtp.
func (o *OTPManager) Verify(ctx context.Context, db dbx.DBTX, email, code string) (string, error) {
	latest, err := o.repomanager.Challenges(db).Latest(ctx, email, o.now().Add(-o.validity))
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrInvalidOtp
	}
	if err != nil {
		return "", fmt.Errorf("%w: load challenge: %v", common.ErrorStorage, err)
	}

	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		return "", common.ErrInvalidOtp
	}
	return latest.ID, nil
}

// Redeem claims the verified challenge id and retires every other outstanding
// code of email. Losing the claim to a concurrent caller yields
// common.ErrInvalidOtp, and db should be the transaction applying the reset.
func (o *OTPManager) Redeem(ctx context.Context, db dbx.DBTX, email, id string) error {
	now := o.now()
	repo := o.repomanager.Challenges(db)

	ok, err := repo.Claim(ctx, id, now.Add(-o.validity), now)
	if err != nil {
		return fmt.Errorf("%w: claim challenge: %v", common.ErrorStorage, err)
	}
	if !ok {
		return common.ErrInvalidOtp
	}

	if _, err := repo.ConsumeAll(ctx, email, now); err != nil {
		return fmt.Errorf("%w: consume challenges: %v", common.ErrorStorage, err)
	}
	return nil
}

// Cleanup deletes challenges that can no longer verify.
func (o *OTPManager) Cleanup(ctx context.Context) (int64, error) {
	return o.repomanager.Challenges(o.repomanager.DB()).DeleteExpired(ctx, o.now().Add(-o.validity))
}
