// Package notify hands password reset codes to an out-of-band delivery
// channel. Delivery itself (email, SMS) happens in another process.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/redis/go-redis/v9"
)

// PasswordResetChannel is the Redis Pub/Sub channel reset events go to.
const PasswordResetChannel = "password_reset_requested"

type Notifier interface {
	PasswordReset(ctx context.Context, email, code string) error
}

// PasswordResetEvent is the payload published for a delivery worker.
type PasswordResetEvent struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requested_at"`
}

// RedisNotifier publishes reset events on PasswordResetChannel.
type RedisNotifier struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisNotifier(rdb *redis.Client, timeout time.Duration) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, timeout: timeout}
}

func (n *RedisNotifier) PasswordReset(ctx context.Context, email, code string) error {
	payload, err := json.Marshal(PasswordResetEvent{Email: email, Code: code, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	return n.rdb.Publish(ctx, PasswordResetChannel, payload).Err()
}

// LogNotifier only records that a code was issued. The code is not logged,
// so it is useful for local runs where delivery is not wired.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) PasswordReset(ctx context.Context, email, _ string) error {
	n.log.Info(ctx, "password reset code issued", "email", email)
	return nil
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []PasswordResetEvent
}

func (r *Recorder) PasswordReset(_ context.Context, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, PasswordResetEvent{Email: email, Code: code, RequestedAt: time.Now()})
	return nil
}

func (r *Recorder) Events() []PasswordResetEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PasswordResetEvent(nil), r.events...)
}

// Last returns the newest code sent to email.
func (r *Recorder) Last(email string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Email == email {
			return r.events[i].Code, true
		}
	}
	return "", false
}
