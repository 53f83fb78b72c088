package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newOTP(t *testing.T) (*OTPManager, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	o := NewOTPManager(inmemory.NewRepositoryManager(), 10*time.Minute)
	o.now = c.now
	return o, c
}

func TestOTP_IssueFormat(t *testing.T) {
	o, _ := newOTP(t)
	for i := 0; i < 20; i++ {
		code, err := o.Issue(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
	}
}

func TestOTP_NeverIssuedFails(t *testing.T) {
	o, _ := newOTP(t)
	ctx := context.Background()

	_, err := o.Verify(ctx, nil, "a@x.com", "123456")
	assert.ErrorIs(t, err, common.ErrInvalidOtp)

	o.generate = func() (string, error) { return "111111", nil }
	_, err = o.Issue(ctx, "b@x.com")
	require.NoError(t, err)

	_, err = o.Verify(ctx, nil, "a@x.com", "111111")
	assert.ErrorIs(t, err, common.ErrInvalidOtp, "code issued for another email")
}

func TestOTP_NewerCodeSupersedesOlder(t *testing.T) {
	o, c := newOTP(t)
	ctx := context.Background()

	o.generate = func() (string, error) { return "111111", nil }
	_, _ = o.Issue(ctx, "a@x.com")
	c.advance(time.Second)
	o.generate = func() (string, error) { return "222222", nil }
	_, _ = o.Issue(ctx, "a@x.com")

	_, err := o.Verify(ctx, nil, "a@x.com", "111111")
	assert.ErrorIs(t, err, common.ErrInvalidOtp, "older code was superseded")

	id, err := o.Verify(ctx, nil, "a@x.com", "222222")
	require.NoError(t, err)
	require.NoError(t, o.Redeem(ctx, nil, "a@x.com", id))

	for _, code := range []string{"111111", "222222"} {
		_, err = o.Verify(ctx, nil, "a@x.com", code)
		assert.ErrorIs(t, err, common.ErrInvalidOtp, code)
	}
}

func TestOTP_Expiry(t *testing.T) {
	o, c := newOTP(t)
	ctx := context.Background()
	o.generate = func() (string, error) { return "123456", nil }
	_, _ = o.Issue(ctx, "a@x.com")

	c.advance(10 * time.Minute)
	_, err := o.Verify(ctx, nil, "a@x.com", "123456")
	assert.NoError(t, err, "still inside the window at exactly the limit")

	c.advance(time.Second)
	_, err = o.Verify(ctx, nil, "a@x.com", "123456")
	assert.ErrorIs(t, err, common.ErrInvalidOtp)
}

func TestOTP_RedeemIsSingleUse(t *testing.T) {
	o, _ := newOTP(t)
	ctx := context.Background()
	o.generate = func() (string, error) { return "123456", nil }
	_, _ = o.Issue(ctx, "a@x.com")

	// two callers verified the same code before either redeemed it
	first, err := o.Verify(ctx, nil, "a@x.com", "123456")
	require.NoError(t, err)
	second, err := o.Verify(ctx, nil, "a@x.com", "123456")
	require.NoError(t, err)

	require.NoError(t, o.Redeem(ctx, nil, "a@x.com", first))
	assert.ErrorIs(t, o.Redeem(ctx, nil, "a@x.com", second), common.ErrInvalidOtp)

	_, err = o.Verify(ctx, nil, "a@x.com", "123456")
	assert.ErrorIs(t, err, common.ErrInvalidOtp)
}

func TestOTP_RedeemAfterExpiryFails(t *testing.T) {
	o, c := newOTP(t)
	ctx := context.Background()
	o.generate = func() (string, error) { return "123456", nil }
	_, _ = o.Issue(ctx, "a@x.com")

	id, err := o.Verify(ctx, nil, "a@x.com", "123456")
	require.NoError(t, err)

	c.advance(11 * time.Minute)
	assert.ErrorIs(t, o.Redeem(ctx, nil, "a@x.com", id), common.ErrInvalidOtp)
}

func TestOTP_Cleanup(t *testing.T) {
	o, c := newOTP(t)
	ctx := context.Background()
	_, _ = o.Issue(ctx, "a@x.com")
	c.advance(11 * time.Minute)
	_, _ = o.Issue(ctx, "a@x.com")

	n, err := o.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
