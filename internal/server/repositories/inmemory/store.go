// Package inmemory implements the repository manager over process memory.
// It backs scenario tests and local runs without PostgreSQL, and mirrors the
// constraints the SQL schema enforces (unique email, uploader foreign key,
// non-negative points).
package inmemory

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/levels"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/papers"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/users"
	"github.com/google/uuid"
)

type state struct {
	users      map[string]models.User
	papers     []models.Paper
	challenges []models.Challenge
}

func (s state) clone() state {
	c := state{
		users:      make(map[string]models.User, len(s.users)),
		papers:     append([]models.Paper(nil), s.papers...),
		challenges: append([]models.Challenge(nil), s.challenges...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type RepositoryManager struct {
	// txMu serializes transactions and every write made outside one, so a
	// failed transaction restoring its snapshot cannot discard foreign writes.
	txMu sync.Mutex
	mu   sync.RWMutex
	st   state
	now  func() time.Time
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		st:  state{users: map[string]models.User{}},
		now: time.Now,
	}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) DB() dbx.DBTX { return nil }

func (m *RepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.st.clone()
	m.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snapshot)
			panic(p)
		}
		if err != nil {
			m.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, m), nil)
}

type txKey struct{}

// lock takes the state write lock for a mutation. Calls outside a
// transaction of m also wait for the running transaction to finish.
func (m *RepositoryManager) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == m {
		m.mu.Lock()
		return m.mu.Unlock
	}
	m.txMu.Lock()
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		m.txMu.Unlock()
	}
}

func (m *RepositoryManager) restore(s state) {
	m.mu.Lock()
	m.st = s
	m.mu.Unlock()
}

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository           { return (*userRepo)(m) }
func (m *RepositoryManager) Papers(dbx.DBTX) papers.Repository         { return (*paperRepo)(m) }
func (m *RepositoryManager) Challenges(dbx.DBTX) challenges.Repository { return (*challengeRepo)(m) }

type userRepo RepositoryManager

func (r *userRepo) findByEmail(email string) (models.User, bool) {
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	if _, ok := r.findByEmail(user.Email); ok {
		return nil, common.ErrorConflict
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.now()
	r.st.users[user.ID] = *user
	return user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfilePic != nil {
		u.ProfilePic = *upd.ProfilePic
	}
	r.st.users[id] = u
	return &u, nil
}

func (r *userRepo) UpdateSecret(ctx context.Context, email string, secretHash string) error {
	defer (*RepositoryManager)(r).lock(ctx)()

	u, ok := r.findByEmail(email)
	if !ok {
		return common.ErrorNotFound
	}
	u.SecretHash = secretHash
	r.st.users[u.ID] = u
	return nil
}

func (r *userRepo) AwardPoints(ctx context.Context, id string, delta int64) (int64, string, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	u, ok := r.st.users[id]
	if !ok {
		return 0, "", common.ErrorNotFound
	}
	if u.Points+delta < 0 {
		return 0, "", common.ErrorValidation
	}
	u.Points += delta
	u.Level = string(levels.ForPoints(u.Points))
	r.st.users[id] = u
	return u.Points, u.Level, nil
}

func (r *userRepo) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	u, ok := r.st.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.Downloads++
	r.st.users[id] = u
	return u.Downloads, nil
}

type paperRepo RepositoryManager

func (r *paperRepo) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	if _, ok := r.st.users[paper.UploaderID]; !ok {
		return nil, common.ErrorNotFound
	}
	paper.ID = uuid.NewString()
	paper.CreatedAt = r.now()
	r.st.papers = append(r.st.papers, *paper)
	return paper, nil
}

func (r *paperRepo) join(p models.Paper) models.PaperWithUploader {
	u := r.st.users[p.UploaderID]
	return models.PaperWithUploader{
		Paper: p,
		Uploader: models.Uploader{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			ProfilePic: u.ProfilePic,
			Level:      u.Level,
		},
	}
}

func (r *paperRepo) GetByID(_ context.Context, id string) (*models.PaperWithUploader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.st.papers {
		if p.ID == id {
			j := r.join(p)
			return &j, nil
		}
	}
	return nil, common.ErrorNotFound
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *paperRepo) Search(_ context.Context, query string) ([]models.PaperWithUploader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.PaperWithUploader, 0, len(r.st.papers))
	for i := len(r.st.papers) - 1; i >= 0; i-- {
		p := r.st.papers[i]
		if query == "" || containsFold(p.Subject, query) || containsFold(p.CourseCode, query) || containsFold(p.ExamName, query) {
			result = append(result, r.join(p))
		}
	}
	return result, nil
}

type challengeRepo RepositoryManager

func (r *challengeRepo) Create(ctx context.Context, c *models.Challenge) (*models.Challenge, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	c.ID = uuid.NewString()
	r.st.challenges = append(r.st.challenges, *c)
	return c, nil
}

func (r *challengeRepo) Latest(_ context.Context, email string, since time.Time) (*models.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.Challenge
	for i := range r.st.challenges {
		c := r.st.challenges[i]
		if c.Email != email || c.ConsumedAt != nil || c.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || !c.CreatedAt.Before(latest.CreatedAt) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest, nil
}

func (r *challengeRepo) Claim(ctx context.Context, id string, since, at time.Time) (bool, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	for i := range r.st.challenges {
		c := &r.st.challenges[i]
		if c.ID != id {
			continue
		}
		if c.ConsumedAt != nil || c.CreatedAt.Before(since) {
			return false, nil
		}
		t := at
		c.ConsumedAt = &t
		return true, nil
	}
	return false, nil
}

func (r *challengeRepo) ConsumeAll(ctx context.Context, email string, at time.Time) (int64, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	var n int64
	for i := range r.st.challenges {
		c := &r.st.challenges[i]
		if c.Email == email && c.ConsumedAt == nil {
			t := at
			c.ConsumedAt = &t
			n++
		}
	}
	return n, nil
}

func (r *challengeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer (*RepositoryManager)(r).lock(ctx)()

	kept := r.st.challenges[:0]
	var n int64
	for _, c := range r.st.challenges {
		if c.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.st.challenges = kept
	return n, nil
}
